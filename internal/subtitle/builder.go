package subtitle

import (
	"math"

	"github.com/captionforge/captionforge/internal/preset"
	"github.com/captionforge/captionforge/internal/transcribe"
	"github.com/captionforge/captionforge/pkg/models"
	"github.com/google/uuid"
)

// Build converts normalized transcription segments into the generation's
// subtitle sequence. One segment maps to exactly one subtitle; no merging
// or splitting happens here. Index is the 1-based position in segment
// order and the default style/position come from the preset catalog.
func Build(segments []transcribe.Segment, catalog *preset.Catalog, styleName, posName string) []models.Subtitle {
	subtitles := make([]models.Subtitle, 0, len(segments))

	for i, seg := range segments {
		if seg.End <= seg.Start {
			// Zero-length segments carry no displayable cue.
			continue
		}

		words := make([]models.WordTiming, 0, len(seg.Words))
		for _, w := range seg.Words {
			words = append(words, models.WordTiming{
				Word:       w.Word,
				StartTime:  w.Start,
				EndTime:    w.End,
				Confidence: w.Confidence,
			})
		}

		subtitles = append(subtitles, models.Subtitle{
			ID:         uuid.New().String(),
			Index:      i + 1,
			StartTime:  seg.Start,
			EndTime:    seg.End,
			Text:       seg.Text,
			Words:      words,
			Confidence: confidenceFromLogProb(seg.AvgLogProb),
			Style:      catalog.StyleOrDefault(styleName),
			Position:   catalog.PositionOrDefault(posName),
		})
	}

	// Reindex after any skipped zero-length segments so the sequence stays
	// contiguous from 1.
	for i := range subtitles {
		subtitles[i].Index = i + 1
	}

	return subtitles
}

// confidenceFromLogProb maps a segment's average log-probability to a
// confidence in [0, 1].
func confidenceFromLogProb(avgLogProb float64) float64 {
	conf := math.Exp(avgLogProb)
	if conf > 1 {
		return 1
	}
	if conf < 0 {
		return 0
	}
	return conf
}
