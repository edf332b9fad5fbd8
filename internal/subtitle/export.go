package subtitle

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/captionforge/captionforge/pkg/models"
)

// Subtitle export formats.
const (
	FormatSRT = "srt"
	FormatVTT = "vtt"
	FormatASS = "ass"
)

// ExportOptions carries target-frame information needed by formats that
// position subtitles in pixels.
type ExportOptions struct {
	Width  int
	Height int
}

// Export serializes the subtitle sequence in the requested format.
func Export(subs []models.Subtitle, format string, opts ExportOptions) (string, error) {
	switch format {
	case FormatSRT:
		return FormatAsSRT(subs), nil
	case FormatVTT:
		return FormatAsVTT(subs), nil
	case FormatASS:
		return FormatAsASS(subs, opts), nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, format)
	}
}

// FormatAsSRT renders the sequence as an SRT file: index line, timestamp
// line, text, blank separator.
func FormatAsSRT(subs []models.Subtitle) string {
	var b strings.Builder
	for _, s := range subs {
		fmt.Fprintf(&b, "%d\n", s.Index)
		fmt.Fprintf(&b, "%s --> %s\n", srtTimestamp(s.StartTime), srtTimestamp(s.EndTime))
		b.WriteString(s.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// FormatAsVTT renders the sequence as WebVTT: the SRT body with a WEBVTT
// header and period decimal separators.
func FormatAsVTT(subs []models.Subtitle) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, s := range subs {
		fmt.Fprintf(&b, "%d\n", s.Index)
		fmt.Fprintf(&b, "%s --> %s\n",
			strings.ReplaceAll(srtTimestamp(s.StartTime), ",", "."),
			strings.ReplaceAll(srtTimestamp(s.EndTime), ",", "."))
		b.WriteString(s.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// srtTimestamp renders seconds as HH:MM:SS,mmm with millisecond rounding.
func srtTimestamp(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// assTimestamp renders seconds as H:MM:SS.cc (centisecond precision).
func assTimestamp(seconds float64) string {
	cs := int64(math.Round(seconds * 100))
	h := cs / 360000
	cs -= h * 360000
	m := cs / 6000
	cs -= m * 6000
	s := cs / 100
	cs -= s * 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// FormatAsASS renders the sequence as an ASS script with one Default style
// and per-subtitle inline override tags synthesized from each subtitle's
// own style and position.
func FormatAsASS(subs []models.Subtitle, opts ExportOptions) string {
	width := opts.Width
	height := opts.Height
	if width <= 0 {
		width = 1920
	}
	if height <= 0 {
		height = 1080
	}

	var b strings.Builder

	b.WriteString("[Script Info]\n")
	b.WriteString("Title: captionforge export\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", width)
	fmt.Fprintf(&b, "PlayResY: %d\n", height)
	b.WriteString("WrapStyle: 0\n\n")

	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	b.WriteString("Style: Default,Arial,32,&H00FFFFFF,&H000000FF,&H00000000,&H80000000,-1,0,0,0,100,100,0,0,1,2,1,2,10,10,20,1\n\n")

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, s := range subs {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s%s\n",
			assTimestamp(s.StartTime),
			assTimestamp(s.EndTime),
			assOverrideTags(s, width, height),
			escapeASSText(s.Text))
	}

	return b.String()
}

// assOverrideTags builds the inline {...} override block for one subtitle.
func assOverrideTags(s models.Subtitle, width, height int) string {
	var tags strings.Builder
	tags.WriteString("{")

	if s.Style.FontFamily != "" {
		fmt.Fprintf(&tags, "\\fn%s", s.Style.FontFamily)
	}
	if s.Style.FontSize > 0 {
		fmt.Fprintf(&tags, "\\fs%d", s.Style.FontSize)
	}
	if s.Style.FontWeight == "bold" {
		tags.WriteString("\\b1")
	}
	if s.Style.Color != "" {
		fmt.Fprintf(&tags, "\\c%s", assColor(s.Style.Color))
	}

	x := int(math.Round(s.Position.X / 100 * float64(width)))
	y := int(math.Round(s.Position.Y / 100 * float64(height)))
	fmt.Fprintf(&tags, "\\pos(%d,%d)", x, y)
	fmt.Fprintf(&tags, "\\an%d", assAlignment(s.Style.TextAlign))

	tags.WriteString("}")
	return tags.String()
}

// assColor converts a #RRGGBB hex color to ASS's reversed-byte-order
// &HBBGGRR& notation. Unparseable values map to white.
func assColor(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return "&HFFFFFF&"
	}
	rr, gg, bb := hex[0:2], hex[2:4], hex[4:6]
	return "&H" + strings.ToUpper(bb+gg+rr) + "&"
}

// assAlignment maps a text-align keyword to a numpad alignment code on the
// bottom row.
func assAlignment(align string) int {
	switch align {
	case "left":
		return 1
	case "right":
		return 3
	default:
		return 2
	}
}

// escapeASSText protects text content from being read as override tags and
// converts line breaks to ASS soft breaks.
func escapeASSText(text string) string {
	text = strings.ReplaceAll(text, "{", "(")
	text = strings.ReplaceAll(text, "}", ")")
	return strings.ReplaceAll(text, "\n", "\\N")
}

// WordTimingEntry is one row in the flat word-timing side-file consumed
// downstream for karaoke-style highlighting.
type WordTimingEntry struct {
	SubtitleID    string  `json:"subtitle_id"`
	Word          string  `json:"word"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	Confidence    float64 `json:"confidence"`
	SubtitleText  string  `json:"subtitle_text"`
	SubtitleStart float64 `json:"subtitle_start"`
	SubtitleEnd   float64 `json:"subtitle_end"`
}

// WordTimingJSON flattens every subtitle's word list into the side-file
// payload.
func WordTimingJSON(subs []models.Subtitle) ([]byte, error) {
	entries := make([]WordTimingEntry, 0)
	for _, s := range subs {
		for _, w := range s.Words {
			entries = append(entries, WordTimingEntry{
				SubtitleID:    s.ID,
				Word:          w.Word,
				StartTime:     w.StartTime,
				EndTime:       w.EndTime,
				Confidence:    w.Confidence,
				SubtitleText:  s.Text,
				SubtitleStart: s.StartTime,
				SubtitleEnd:   s.EndTime,
			})
		}
	}
	return json.MarshalIndent(entries, "", "  ")
}
