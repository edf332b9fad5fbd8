package subtitle

import (
	"errors"
	"testing"

	"github.com/captionforge/captionforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func editorJob() *models.GenerationJob {
	return &models.GenerationJob{
		ID:        "gen-1",
		Subtitles: sampleSubs(),
		SRTPath:   "/tmp/gen-1.srt",
		WordsPath: "/tmp/gen-1.words.json",
	}
}

func TestApplyStyleSingleSubtitle(t *testing.T) {
	job := editorJob()
	size := 48
	color := "#FF00FF"

	err := ApplyStyle(job, "sub-1", models.StylePatch{FontSize: &size, Color: &color})
	require.NoError(t, err)

	assert.Equal(t, 48, job.Subtitles[0].Style.FontSize)
	assert.Equal(t, "#FF00FF", job.Subtitles[0].Style.Color)
	// Patched fields only; the rest of the style is untouched.
	assert.Equal(t, "Arial", job.Subtitles[0].Style.FontFamily)

	// The other subtitle's style must not change in any field.
	assert.Equal(t, sampleSubs()[1].Style, job.Subtitles[1].Style)

	// Edits invalidate derived artifacts.
	assert.Empty(t, job.SRTPath)
	assert.Empty(t, job.WordsPath)
}

func TestApplyStyleUnknownSubtitle(t *testing.T) {
	job := editorJob()
	size := 48

	err := ApplyStyle(job, "missing", models.StylePatch{FontSize: &size})
	assert.True(t, errors.Is(err, models.ErrNotFound))
	// Failed edits leave artifacts alone.
	assert.Equal(t, "/tmp/gen-1.srt", job.SRTPath)
}

func TestApplyStyleAll(t *testing.T) {
	job := editorJob()
	anim := models.AnimationNeon

	ApplyStyleAll(job, models.StylePatch{Animation: &anim})

	for _, s := range job.Subtitles {
		assert.Equal(t, models.AnimationNeon, s.Style.Animation)
	}
	assert.Empty(t, job.SRTPath)
}

func TestSetPositionReplacesWholeObject(t *testing.T) {
	job := editorJob()

	err := SetPosition(job, "sub-2", models.Position{X: 10, Y: 90})
	require.NoError(t, err)

	assert.Equal(t, models.Position{X: 10, Y: 90}, job.Subtitles[1].Position)
	// Other subtitles keep their position.
	assert.Equal(t, models.Position{X: 50, Y: 85}, job.Subtitles[0].Position)
	assert.Empty(t, job.SRTPath)
}

func TestSetPositionUnknownSubtitle(t *testing.T) {
	job := editorJob()
	err := SetPosition(job, "missing", models.Position{X: 1, Y: 1})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
