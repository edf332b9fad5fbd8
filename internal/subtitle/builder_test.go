package subtitle

import (
	"testing"

	"github.com/captionforge/captionforge/internal/preset"
	"github.com/captionforge/captionforge/internal/transcribe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOneSegmentOneSubtitle(t *testing.T) {
	segments := []transcribe.Segment{
		{Start: 0.0, End: 2.5, Text: "first segment", AvgLogProb: -0.1},
		{Start: 2.5, End: 5.0, Text: "second segment", AvgLogProb: -0.5,
			Words: []transcribe.Word{
				{Word: "second", Start: 2.5, End: 3.5},
				{Word: "segment", Start: 3.5, End: 5.0},
			}},
	}

	subs := Build(segments, preset.Default(), "simple", "bottom_center")
	require.Len(t, subs, 2)

	for i, s := range subs {
		// Index is 1-based and contiguous; spans are strictly ordered.
		assert.Equal(t, i+1, s.Index)
		assert.Less(t, s.StartTime, s.EndTime)
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "Arial", s.Style.FontFamily)
		assert.Equal(t, 50.0, s.Position.X)
		assert.Equal(t, 85.0, s.Position.Y)
	}

	assert.Empty(t, subs[0].Words)
	require.Len(t, subs[1].Words, 2)
	assert.Equal(t, "second", subs[1].Words[0].Word)
}

func TestBuildSkipsZeroLengthSegments(t *testing.T) {
	segments := []transcribe.Segment{
		{Start: 0.0, End: 1.0, Text: "keep"},
		{Start: 1.0, End: 1.0, Text: "drop"},
		{Start: 1.0, End: 2.0, Text: "keep too"},
	}

	subs := Build(segments, preset.Default(), "simple", "bottom_center")
	require.Len(t, subs, 2)
	assert.Equal(t, 1, subs[0].Index)
	assert.Equal(t, 2, subs[1].Index)
	assert.Equal(t, "keep too", subs[1].Text)
}

func TestBuildConfidence(t *testing.T) {
	tests := []struct {
		name       string
		avgLogProb float64
		wantMin    float64
		wantMax    float64
	}{
		{"high confidence", -0.05, 0.94, 0.96},
		{"low confidence", -2.0, 0.13, 0.14},
		{"zero logprob clamps to one", 0.0, 1.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := Build([]transcribe.Segment{
				{Start: 0, End: 1, Text: "x", AvgLogProb: tt.avgLogProb},
			}, preset.Default(), "simple", "bottom_center")
			require.Len(t, subs, 1)
			assert.GreaterOrEqual(t, subs[0].Confidence, tt.wantMin)
			assert.LessOrEqual(t, subs[0].Confidence, tt.wantMax)
		})
	}
}

func TestBuildUnknownPresetNamesFallBack(t *testing.T) {
	subs := Build([]transcribe.Segment{
		{Start: 0, End: 1, Text: "x"},
	}, preset.Default(), "no-such-style", "no-such-position")
	require.Len(t, subs, 1)
	assert.Equal(t, "Arial", subs[0].Style.FontFamily)
	assert.Equal(t, 85.0, subs[0].Position.Y)
}
