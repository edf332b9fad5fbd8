package render

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/captionforge/captionforge/internal/logging"
	"github.com/captionforge/captionforge/internal/media"
	"github.com/captionforge/captionforge/internal/metrics"
	"github.com/captionforge/captionforge/internal/subtitle"
	"github.com/captionforge/captionforge/pkg/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Render strategies.
const (
	PathStandard = "standard"
	PathAdvanced = "advanced"
)

// Engine burns a subtitle sequence into a source video. Static styles go
// through subtitle-track muxing; animated presets require per-frame
// overlay synthesis.
type Engine struct {
	toolchain media.Toolchain
	fonts     *FontResolver
	log       *logging.Logger
	tempDir   string
	workers   int
	link      func(src, dst string) error
}

// NewEngine creates a rendering engine.
func NewEngine(toolchain media.Toolchain, fonts *FontResolver, log *logging.Logger, tempDir string, frameWorkers int) *Engine {
	if frameWorkers <= 0 {
		frameWorkers = runtime.NumCPU()
	}
	return &Engine{
		toolchain: toolchain,
		fonts:     fonts,
		log:       log,
		tempDir:   tempDir,
		workers:   frameWorkers,
		link:      linkOrCopy,
	}
}

// advancedPresets are the animation names that cannot be expressed by
// static subtitle-track muxing.
var advancedPresets = map[string]bool{
	models.AnimationBubbles:    true,
	models.AnimationConfetti:   true,
	models.AnimationNeon:       true,
	models.AnimationTypewriter: true,
	models.AnimationBounce:     true,
}

// NeedsAdvanced reports whether any subtitle's animation forces the
// per-frame overlay path. Unknown animation names render statically and
// do not trigger it.
func NeedsAdvanced(subs []models.Subtitle) bool {
	for _, s := range subs {
		if advancedPresets[s.Style.Animation] {
			return true
		}
	}
	return false
}

// DecidePath returns the render strategy name for a subtitle sequence.
func DecidePath(subs []models.Subtitle) string {
	if NeedsAdvanced(subs) {
		return PathAdvanced
	}
	return PathStandard
}

// OutputPath derives a collision-resistant output file path next to the
// source video.
func OutputPath(sourcePath string) string {
	dir := filepath.Dir(sourcePath)
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	suffix := uuid.New().String()[:8]
	return filepath.Join(dir, fmt.Sprintf("%s_captioned_%s.mp4", base, suffix))
}

// Render produces a new video with the subtitles burned in and returns
// its path. The source video and its audio stream are never modified.
func (e *Engine) Render(ctx context.Context, video *models.VideoAsset, subs []models.Subtitle) (string, error) {
	path := DecidePath(subs)
	outputPath := OutputPath(video.Path)
	started := time.Now()

	e.log.WithVideoID(video.ID).Infof("Rendering %d subtitles via %s path", len(subs), path)

	var err error
	if path == PathAdvanced {
		err = e.renderAdvanced(ctx, video, subs, outputPath)
	} else {
		err = e.renderStandard(ctx, video, subs, outputPath)
	}

	status := "success"
	if err != nil {
		status = "failed"
	}
	metrics.RecordRender(path, status, time.Since(started).Seconds())

	if err != nil {
		return "", err
	}
	return outputPath, nil
}

// renderStandard builds an ASS file from the sequence and muxes it in a
// single encoder pass.
func (e *Engine) renderStandard(ctx context.Context, video *models.VideoAsset, subs []models.Subtitle, outputPath string) error {
	if err := os.MkdirAll(e.tempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	assFile, err := os.CreateTemp(e.tempDir, "captions-*.ass")
	if err != nil {
		return fmt.Errorf("failed to create subtitle file: %w", err)
	}
	assPath := assFile.Name()
	defer os.Remove(assPath)

	content := subtitle.FormatAsASS(subs, subtitle.ExportOptions{
		Width:  video.Width,
		Height: video.Height,
	})
	if _, err := assFile.WriteString(content); err != nil {
		assFile.Close()
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}
	if err := assFile.Close(); err != nil {
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}

	return e.toolchain.BurnSubtitles(ctx, media.BurnOptions{
		InputPath:    video.Path,
		SubtitlePath: assPath,
		OutputPath:   outputPath,
	})
}

// frameSpan is a subtitle's active frame range, both ends inclusive.
type frameSpan struct {
	sub   *models.Subtitle
	first int
	last  int
}

// renderAdvanced synthesizes a transparent overlay image per frame and
// composites the sequence over the source video.
func (e *Engine) renderAdvanced(ctx context.Context, video *models.VideoAsset, subs []models.Subtitle, outputPath string) error {
	probe, err := e.toolchain.Probe(ctx, video.Path)
	if err != nil {
		return err
	}

	fps := probe.FrameRate
	if fps <= 0 {
		fps = 30
	}
	width, height := probe.Width, probe.Height
	if width <= 0 || height <= 0 {
		width, height = video.Width, video.Height
	}

	totalFrames := int(math.Round(probe.Duration * fps))
	if totalFrames <= 0 {
		return fmt.Errorf("%w: source has no frames", models.ErrEncodeFailed)
	}

	spans := make([]frameSpan, 0, len(subs))
	for i := range subs {
		spans = append(spans, frameSpan{
			sub:   &subs[i],
			first: int(math.Round(subs[i].StartTime * fps)),
			last:  int(math.Round(subs[i].EndTime * fps)),
		})
	}

	workDir, err := os.MkdirTemp(e.tempDir, "overlay-")
	if err != nil {
		return fmt.Errorf("failed to create overlay directory: %w", err)
	}
	// Overlay frames are working state only; remove them on every exit
	// path.
	defer os.RemoveAll(workDir)

	blankPath := filepath.Join(workDir, "blank.png")
	if err := writeBlankOverlay(blankPath, width, height); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	rendered := 0
	for frame := 0; frame < totalFrames; frame++ {
		framePath := filepath.Join(workDir, fmt.Sprintf("frame_%06d.png", frame))

		active := activeSubtitles(spans, frame)
		if len(active) > 0 {
			rendered++
		}

		frame := frame
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if len(active) == 0 {
				// Empty frames share one transparent image.
				return e.link(blankPath, framePath)
			}
			return e.renderOverlayFrame(framePath, active, frame, fps, width, height)
		})
	}

	// Every frame write runs inside the group, so no goroutine can
	// outlive this wait and race the work dir removal.
	if err := g.Wait(); err != nil {
		return err
	}
	metrics.OverlayFramesRenderedTotal.Add(float64(rendered))
	e.log.LogRenderProgress(video.ID, rendered, totalFrames)

	return e.toolchain.OverlayFrames(ctx, media.OverlayOptions{
		InputPath:    video.Path,
		FramePattern: filepath.Join(workDir, "frame_%06d.png"),
		FrameRate:    fps,
		OutputPath:   outputPath,
	})
}

// activeSubtitles returns the subtitles whose frame range covers frame.
func activeSubtitles(spans []frameSpan, frame int) []*models.Subtitle {
	var active []*models.Subtitle
	for _, s := range spans {
		if frame >= s.first && frame <= s.last {
			active = append(active, s.sub)
		}
	}
	return active
}

// renderOverlayFrame draws every active subtitle onto one transparent
// RGBA image and writes it as PNG.
func (e *Engine) renderOverlayFrame(path string, active []*models.Subtitle, frame int, fps float64, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	t := float64(frame) / fps

	// Seed from the frame index so particle effects are reproducible for
	// a given source.
	rng := rand.New(rand.NewSource(int64(frame)))

	for _, sub := range active {
		drawSubtitle(img, sub, t, e.fonts, rng)
	}

	return writePNG(path, img)
}

func writeBlankOverlay(path string, width, height int) error {
	return writePNG(path, image.NewRGBA(image.Rect(0, 0, width, height)))
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create overlay frame: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode overlay frame: %w", err)
	}
	return f.Close()
}

// linkOrCopy hardlinks src to dst, copying when the filesystem refuses
// links.
func linkOrCopy(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
