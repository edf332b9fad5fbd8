package subtitle

import (
	"fmt"

	"github.com/captionforge/captionforge/pkg/models"
)

// ApplyStyle shallow-merges a style patch into one subtitle, leaving the
// others untouched, and invalidates the job's derived artifacts.
func ApplyStyle(job *models.GenerationJob, subtitleID string, patch models.StylePatch) error {
	sub := job.SubtitleByID(subtitleID)
	if sub == nil {
		return fmt.Errorf("subtitle %s: %w", subtitleID, models.ErrNotFound)
	}

	sub.Style.Apply(patch)
	job.InvalidateArtifacts()
	return nil
}

// ApplyStyleAll applies the same style patch uniformly to every subtitle
// and invalidates the job's derived artifacts.
func ApplyStyleAll(job *models.GenerationJob, patch models.StylePatch) {
	for i := range job.Subtitles {
		job.Subtitles[i].Style.Apply(patch)
	}
	job.InvalidateArtifacts()
}

// SetPositionAll replaces every subtitle's position and invalidates the
// job's derived artifacts.
func SetPositionAll(job *models.GenerationJob, pos models.Position) {
	for i := range job.Subtitles {
		job.Subtitles[i].Position = pos
	}
	job.InvalidateArtifacts()
}

// SetPosition replaces one subtitle's position wholesale. Position edits
// are never partial; x and y always arrive together.
func SetPosition(job *models.GenerationJob, subtitleID string, pos models.Position) error {
	sub := job.SubtitleByID(subtitleID)
	if sub == nil {
		return fmt.Errorf("subtitle %s: %w", subtitleID, models.ErrNotFound)
	}

	sub.Position = pos
	job.InvalidateArtifacts()
	return nil
}
