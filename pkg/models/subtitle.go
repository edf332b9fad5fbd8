package models

// Subtitle is one captioned cue derived from a transcription segment.
// Index is 1-based and contiguous in segment order; EndTime is always
// strictly greater than StartTime.
type Subtitle struct {
	ID         string       `json:"id"`
	Index      int          `json:"index"`
	StartTime  float64      `json:"start_time"`
	EndTime    float64      `json:"end_time"`
	Text       string       `json:"text"`
	Words      []WordTiming `json:"words,omitempty"`
	Confidence float64      `json:"confidence"`
	Position   Position     `json:"position"`
	Style      Style        `json:"style"`
}

// Duration returns the cue length in seconds.
func (s *Subtitle) Duration() float64 {
	return s.EndTime - s.StartTime
}

// WordTiming is a single timed token inside a subtitle. When derived from
// native word timestamps the span falls within the parent subtitle; when
// derived from the even-distribution fallback it may not.
type WordTiming struct {
	Word       string  `json:"word"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Confidence float64 `json:"confidence"`
}

// Position places a subtitle on the frame as percentages (0-100) of the
// frame's width and height.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style holds the visual properties of a subtitle. A subtitle's style
// starts as a copy of a named preset and is mutated by applying patches.
type Style struct {
	FontFamily   string `json:"font_family"`
	FontSize     int    `json:"font_size"`
	FontWeight   string `json:"font_weight"`
	Color        string `json:"color"`
	Background   string `json:"background"`
	Padding      int    `json:"padding"`
	BorderRadius int    `json:"border_radius"`
	Animation    string `json:"animation,omitempty"`
	TextAlign    string `json:"text_align"`
}

// StylePatch is a partial style. Nil fields are left untouched on apply;
// present fields always win.
type StylePatch struct {
	FontFamily   *string `json:"font_family,omitempty"`
	FontSize     *int    `json:"font_size,omitempty"`
	FontWeight   *string `json:"font_weight,omitempty"`
	Color        *string `json:"color,omitempty"`
	Background   *string `json:"background,omitempty"`
	Padding      *int    `json:"padding,omitempty"`
	BorderRadius *int    `json:"border_radius,omitempty"`
	Animation    *string `json:"animation,omitempty"`
	TextAlign    *string `json:"text_align,omitempty"`
}

// Apply merges a patch into the style, field by field.
func (s *Style) Apply(p StylePatch) {
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.FontWeight != nil {
		s.FontWeight = *p.FontWeight
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.Background != nil {
		s.Background = *p.Background
	}
	if p.Padding != nil {
		s.Padding = *p.Padding
	}
	if p.BorderRadius != nil {
		s.BorderRadius = *p.BorderRadius
	}
	if p.Animation != nil {
		s.Animation = *p.Animation
	}
	if p.TextAlign != nil {
		s.TextAlign = *p.TextAlign
	}
}

// Animation preset names recognized by the renderer. Anything else renders
// through the static default path.
const (
	AnimationBubbles    = "bubbles"
	AnimationConfetti   = "confetti"
	AnimationNeon       = "neon"
	AnimationTypewriter = "typewriter"
	AnimationBounce     = "bounce"
)
