package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/captionforge/captionforge/internal/logging"
	"github.com/captionforge/captionforge/internal/media"
	"github.com/captionforge/captionforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	return logging.NewWriterLogger(io.Discard)
}

func staticSub(id string, start, end float64, text string) models.Subtitle {
	return models.Subtitle{
		ID:        id,
		StartTime: start,
		EndTime:   end,
		Text:      text,
		Position:  models.Position{X: 50, Y: 85},
		Style: models.Style{
			FontFamily: "Arial",
			FontSize:   24,
			Color:      "#FFFFFF",
		},
	}
}

func TestDecidePath(t *testing.T) {
	tests := []struct {
		name       string
		animations []string
		want       string
	}{
		{"no animations", []string{"", ""}, PathStandard},
		{"unknown preset stays standard", []string{"sparkle"}, PathStandard},
		{"single bounce forces advanced", []string{"", "bounce", ""}, PathAdvanced},
		{"neon forces advanced", []string{"neon"}, PathAdvanced},
		{"typewriter forces advanced", []string{"typewriter"}, PathAdvanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := make([]models.Subtitle, len(tt.animations))
			for i, a := range tt.animations {
				subs[i] = staticSub(fmt.Sprintf("sub-%d", i), float64(i), float64(i)+1, "text")
				subs[i].Style.Animation = a
			}
			assert.Equal(t, tt.want, DecidePath(subs))
		})
	}
}

func TestOutputPath(t *testing.T) {
	source := "/videos/input/clip.mov"

	first := OutputPath(source)
	second := OutputPath(source)

	assert.Equal(t, "/videos/input", filepath.Dir(first))
	assert.True(t, strings.HasPrefix(filepath.Base(first), "clip_captioned_"))
	assert.True(t, strings.HasSuffix(first, ".mp4"))
	assert.NotEqual(t, first, second, "output names must not collide")
}

func TestBounceCurve(t *testing.T) {
	assert.InDelta(t, 1.0, bounceCurve(0), 1e-9)

	// The curve settles close to 1 at the end of the window.
	assert.InDelta(t, 1.0, bounceCurve(1), 0.01)

	// Progress outside [0,1] clamps to the endpoints.
	assert.Equal(t, bounceCurve(0), bounceCurve(-0.5))
	assert.Equal(t, bounceCurve(1), bounceCurve(2.0))

	// The elastic overshoot dips below and above 1 mid-window.
	var min, max float64 = 1, 1
	for p := 0.0; p <= 1.0; p += 0.01 {
		b := bounceCurve(p)
		min = math.Min(min, b)
		max = math.Max(max, b)
	}
	assert.Less(t, min, 1.0)
	assert.Greater(t, max, 1.0)
}

func TestTypewriterReveal(t *testing.T) {
	text := "hello world"

	assert.Equal(t, 0, typewriterReveal(text, 2, 4, 2.0))
	assert.Equal(t, 0, typewriterReveal(text, 2, 4, 1.0))
	assert.Equal(t, 6, typewriterReveal(text, 2, 4, 3.0))
	assert.Equal(t, 11, typewriterReveal(text, 2, 4, 4.0))
	assert.Equal(t, 11, typewriterReveal(text, 2, 4, 9.0))

	// Degenerate spans reveal everything.
	assert.Equal(t, 11, typewriterReveal(text, 4, 4, 4.0))
}

func TestCursorVisible(t *testing.T) {
	assert.True(t, cursorVisible(0))
	assert.True(t, cursorVisible(0.4))
	assert.False(t, cursorVisible(0.6))
	assert.True(t, cursorVisible(1.0))
	assert.False(t, cursorVisible(1.5))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#FFD700", color.RGBA{R: 255, G: 215, B: 0, A: 255}},
		{"#000000", color.RGBA{A: 255}},
		{"transparent", color.RGBA{}},
		{"", color.RGBA{}},
		{"rgb(10, 20, 30)", color.RGBA{R: 10, G: 20, B: 30, A: 255}},
		{"rgba(10, 20, 30, 0.5)", color.RGBA{R: 10, G: 20, B: 30, A: 127}},
		{"blue", color.RGBA{R: 255, G: 255, B: 255, A: 255}},
		{"#GGHHII", color.RGBA{R: 255, G: 255, B: 255, A: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseColor(tt.in))
		})
	}
}

func TestFontResolverBitmapFallback(t *testing.T) {
	empty := t.TempDir()
	r := NewFontResolver(empty, empty)

	// Override the system chain so the host's fonts cannot leak in.
	orig := systemFontDirs
	systemFontDirs = nil
	defer func() { systemFontDirs = orig }()

	face := r.Resolve("No Such Family", 48)
	require.NotNil(t, face)
	assert.Greater(t, measureString(face, "hello"), 0)

	// The same key resolves to the cached face.
	assert.Equal(t, face, r.Resolve("No Such Family", 48))
}

func TestActiveSubtitles(t *testing.T) {
	subs := []models.Subtitle{
		staticSub("a", 0, 1, "first"),
		staticSub("b", 0.5, 2, "second"),
	}
	spans := []frameSpan{
		{sub: &subs[0], first: 0, last: 10},
		{sub: &subs[1], first: 5, last: 20},
	}

	assert.Len(t, activeSubtitles(spans, 0), 1)
	assert.Len(t, activeSubtitles(spans, 7), 2)
	assert.Len(t, activeSubtitles(spans, 15), 1)
	assert.Empty(t, activeSubtitles(spans, 25))
}

type fakeToolchain struct {
	probe media.ProbeResult

	burnOpts    *media.BurnOptions
	burnASS     string
	overlayOpts *media.OverlayOptions
	frameCount  int
}

func (f *fakeToolchain) Probe(ctx context.Context, path string) (*media.ProbeResult, error) {
	p := f.probe
	return &p, nil
}

func (f *fakeToolchain) ExtractAudio(ctx context.Context, inputPath, outputPath string) error {
	return nil
}

func (f *fakeToolchain) BurnSubtitles(ctx context.Context, opts media.BurnOptions) error {
	f.burnOpts = &opts
	data, err := os.ReadFile(opts.SubtitlePath)
	if err != nil {
		return err
	}
	f.burnASS = string(data)
	return nil
}

func (f *fakeToolchain) OverlayFrames(ctx context.Context, opts media.OverlayOptions) error {
	f.overlayOpts = &opts
	// Count the frames that exist before the engine cleans them up.
	dir := filepath.Dir(opts.FramePattern)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "frame_") {
			f.frameCount++
		}
	}
	return nil
}

func testEngine(t *testing.T, tc media.Toolchain) *Engine {
	t.Helper()
	return NewEngine(tc, NewFontResolver("", ""), testLogger(t), t.TempDir(), 2)
}

func TestRenderStandardPath(t *testing.T) {
	tc := &fakeToolchain{}
	engine := testEngine(t, tc)

	video := &models.VideoAsset{
		ID:     "vid-1",
		Path:   "/videos/clip.mp4",
		Width:  1920,
		Height: 1080,
	}
	subs := []models.Subtitle{staticSub("sub-1", 1, 3, "hello world")}

	out, err := engine.Render(context.Background(), video, subs)
	require.NoError(t, err)

	require.NotNil(t, tc.burnOpts)
	assert.Nil(t, tc.overlayOpts)
	assert.Equal(t, video.Path, tc.burnOpts.InputPath)
	assert.Equal(t, out, tc.burnOpts.OutputPath)
	assert.Contains(t, tc.burnASS, "[Script Info]")
	assert.Contains(t, tc.burnASS, "hello world")

	// The temporary subtitle file is removed after the pass.
	_, statErr := os.Stat(tc.burnOpts.SubtitlePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderAdvancedPath(t *testing.T) {
	tc := &fakeToolchain{
		probe: media.ProbeResult{Duration: 1.0, Width: 320, Height: 180, FrameRate: 10},
	}
	engine := testEngine(t, tc)

	video := &models.VideoAsset{ID: "vid-2", Path: "/videos/clip.mp4"}
	sub := staticSub("sub-1", 0.2, 0.6, "hello")
	sub.Style.Animation = models.AnimationBounce

	out, err := engine.Render(context.Background(), video, []models.Subtitle{sub})
	require.NoError(t, err)

	require.NotNil(t, tc.overlayOpts)
	assert.Nil(t, tc.burnOpts)
	assert.Equal(t, 10.0, tc.overlayOpts.FrameRate)
	assert.Equal(t, out, tc.overlayOpts.OutputPath)
	assert.Equal(t, 10, tc.frameCount, "one overlay frame per source frame")

	// Working frames are cleaned up after compositing.
	_, statErr := os.Stat(filepath.Dir(tc.overlayOpts.FramePattern))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderAdvancedStopsFrameWorkersOnBlankFrameFailure(t *testing.T) {
	tc := &fakeToolchain{
		probe: media.ProbeResult{Duration: 2.0, Width: 320, Height: 180, FrameRate: 5},
	}
	tmp := t.TempDir()
	engine := NewEngine(tc, NewFontResolver("", ""), testLogger(t), tmp, 2)

	linkErr := errors.New("link failed")
	engine.link = func(src, dst string) error { return linkErr }

	video := &models.VideoAsset{ID: "vid-4", Path: "/videos/clip.mp4"}
	sub := staticSub("sub-1", 0.4, 1.0, "hello")
	sub.Style.Animation = models.AnimationBounce

	_, err := engine.Render(context.Background(), video, []models.Subtitle{sub})
	require.ErrorIs(t, err, linkErr)
	assert.Nil(t, tc.overlayOpts, "compositing must not run after a frame failure")

	// The work directory is only removed once every frame worker has
	// stopped, so nothing may be left behind and nothing may reappear.
	entries, readErr := os.ReadDir(tmp)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

// hasInk reports whether any pixel of a PNG has nonzero alpha.
func hasInk(t *testing.T, path string) bool {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				return true
			}
		}
	}
	return false
}

func TestOverlayFramesCarryInkOnlyDuringActiveWindow(t *testing.T) {
	framesByIndex := map[int]string{}
	tc := &fakeToolchain{
		probe: media.ProbeResult{Duration: 2.0, Width: 320, Height: 180, FrameRate: 5},
	}
	_ = testEngine(t, tc)

	video := &models.VideoAsset{ID: "vid-3", Path: "/videos/clip.mp4"}
	sub := staticSub("sub-1", 0.4, 1.0, "hello")
	sub.Style.Animation = models.AnimationBounce

	// Copy the frames out before the engine removes its work directory.
	snapshot := t.TempDir()
	tc2 := &snapshotToolchain{fakeToolchain: tc, dest: snapshot, frames: framesByIndex}

	_, err := NewEngine(tc2, NewFontResolver("", ""), testLogger(t), t.TempDir(), 2).
		Render(context.Background(), video, []models.Subtitle{sub})
	require.NoError(t, err)

	// Active window [0.4, 1.0] at 5 fps covers frames 2 through 5.
	require.NotEmpty(t, framesByIndex)
	assert.False(t, hasInk(t, framesByIndex[0]))
	assert.True(t, hasInk(t, framesByIndex[3]))
	assert.False(t, hasInk(t, framesByIndex[8]))
}

type snapshotToolchain struct {
	*fakeToolchain
	dest   string
	frames map[int]string
}

func (s *snapshotToolchain) OverlayFrames(ctx context.Context, opts media.OverlayOptions) error {
	dir := filepath.Dir(opts.FramePattern)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		var idx int
		if _, err := fmt.Sscanf(e.Name(), "frame_%06d.png", &idx); err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		out := filepath.Join(s.dest, e.Name())
		if err := os.WriteFile(out, data, 0644); err != nil {
			return err
		}
		s.frames[idx] = out
	}
	return s.fakeToolchain.OverlayFrames(ctx, opts)
}
