package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestStyleApply(t *testing.T) {
	style := Style{
		FontFamily: "Arial",
		FontSize:   24,
		FontWeight: "normal",
		Color:      "#FFFFFF",
		Background: "#000000",
		TextAlign:  "center",
	}

	style.Apply(StylePatch{
		FontSize:  intPtr(36),
		Color:     strPtr("#FFFF00"),
		Animation: strPtr(AnimationBounce),
	})

	assert.Equal(t, 36, style.FontSize)
	assert.Equal(t, "#FFFF00", style.Color)
	assert.Equal(t, AnimationBounce, style.Animation)
	// Untouched fields keep their values.
	assert.Equal(t, "Arial", style.FontFamily)
	assert.Equal(t, "normal", style.FontWeight)
	assert.Equal(t, "#000000", style.Background)
	assert.Equal(t, "center", style.TextAlign)
}

func TestStyleApplyEmptyPatch(t *testing.T) {
	style := Style{FontFamily: "Impact", FontSize: 48}
	before := style
	style.Apply(StylePatch{})
	assert.Equal(t, before, style)
}

func TestSubtitleDuration(t *testing.T) {
	s := Subtitle{StartTime: 2.0, EndTime: 4.5}
	assert.InDelta(t, 2.5, s.Duration(), 1e-9)
}

func TestGenerationJobTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{GenerationStatusPending, false},
		{GenerationStatusProcessing, false},
		{GenerationStatusCompleted, true},
		{GenerationStatusFailed, true},
	}
	for _, tt := range tests {
		j := GenerationJob{Status: tt.status}
		assert.Equal(t, tt.want, j.Terminal(), tt.status)
	}
}

func TestGenerationJobInvalidateArtifacts(t *testing.T) {
	j := GenerationJob{
		SRTPath:    "/tmp/a.srt",
		WordsPath:  "/tmp/a.words.json",
		RenderPath: "/tmp/a.mp4",
		AudioPath:  "/tmp/a.wav",
	}
	j.InvalidateArtifacts()
	assert.Empty(t, j.SRTPath)
	assert.Empty(t, j.WordsPath)
	assert.Empty(t, j.RenderPath)
	// The extracted audio is not a derived artifact of the subtitle set.
	assert.Equal(t, "/tmp/a.wav", j.AudioPath)
}

func TestSubtitleByID(t *testing.T) {
	j := GenerationJob{Subtitles: []Subtitle{
		{ID: "sub-1", Index: 1},
		{ID: "sub-2", Index: 2},
	}}

	got := j.SubtitleByID("sub-2")
	if assert.NotNil(t, got) {
		assert.Equal(t, 2, got.Index)
	}
	assert.Nil(t, j.SubtitleByID("missing"))

	// Mutations through the pointer reach the job's copy.
	got.Text = "edited"
	assert.Equal(t, "edited", j.Subtitles[1].Text)
}
