package render

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"strings"

	"github.com/captionforge/captionforge/internal/transcribe"
	"github.com/captionforge/captionforge/pkg/models"
	"golang.org/x/image/font"
)

// Effect colors shared across presets.
var (
	highlightGold = color.RGBA{R: 255, G: 215, B: 0, A: 255}
	neonCyan      = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	shadowBlack   = color.RGBA{A: 160}

	confettiPalette = []color.RGBA{
		{R: 255, G: 99, B: 132, A: 255},
		{R: 54, G: 162, B: 235, A: 255},
		{R: 255, G: 206, B: 86, A: 255},
		{R: 75, G: 192, B: 192, A: 255},
		{R: 153, G: 102, B: 255, A: 255},
	}
)

// renderWords returns the subtitle's word timings, applying the
// even-distribution fallback across the subtitle span when no native
// timings exist. The fallback mirrors the transcription client's rule but
// is applied independently at render time.
func renderWords(sub *models.Subtitle) []models.WordTiming {
	if len(sub.Words) > 0 {
		return sub.Words
	}

	distributed := transcribe.DistributeWords(sub.Text, sub.StartTime, sub.EndTime)
	words := make([]models.WordTiming, len(distributed))
	for i, w := range distributed {
		words[i] = models.WordTiming{Word: w.Word, StartTime: w.Start, EndTime: w.End}
	}
	return words
}

// drawSubtitle renders one subtitle onto the overlay image at absolute
// time t, dispatching on the style's animation preset. Unknown preset
// names take the static default path.
func drawSubtitle(img *image.RGBA, sub *models.Subtitle, t float64, fonts *FontResolver, rng *rand.Rand) {
	switch sub.Style.Animation {
	case models.AnimationBubbles:
		drawBubbles(img, sub, t, fonts)
	case models.AnimationConfetti:
		drawConfetti(img, sub, t, fonts, rng)
	case models.AnimationNeon:
		drawNeon(img, sub, t, fonts)
	case models.AnimationTypewriter:
		drawTypewriter(img, sub, t, fonts)
	case models.AnimationBounce:
		drawBounce(img, sub, t, fonts)
	default:
		drawStatic(img, sub, fonts)
	}
}

// anchor returns the subtitle's pixel anchor on the frame.
func anchor(img *image.RGBA, sub *models.Subtitle) (int, int) {
	bounds := img.Bounds()
	x := int(math.Round(sub.Position.X / 100 * float64(bounds.Dx())))
	y := int(math.Round(sub.Position.Y / 100 * float64(bounds.Dy())))
	return x, y
}

// glowString stamps the text repeatedly at radial offsets with partial
// alpha, producing a halo behind subsequently drawn solid text.
func glowString(img *image.RGBA, face font.Face, text string, x, y, radius int, col color.RGBA) {
	if radius <= 0 {
		return
	}
	diag := int(math.Round(float64(radius) * math.Sqrt2 / 2))
	offsets := []image.Point{
		{X: radius}, {X: -radius}, {Y: radius}, {Y: -radius},
		{X: diag, Y: diag}, {X: diag, Y: -diag}, {X: -diag, Y: diag}, {X: -diag, Y: -diag},
	}
	for _, off := range offsets {
		drawString(img, face, text, x+off.X, y+off.Y, col)
	}
}

// wordActive reports whether t falls inside the word's span.
func wordActive(w models.WordTiming, t float64) bool {
	return t >= w.StartTime && t < w.EndTime
}

// drawBubbles renders each word individually: the word whose span covers
// t scales up with a glowing highlight, the rest render at base size.
func drawBubbles(img *image.RGBA, sub *models.Subtitle, t float64, fonts *FontResolver) {
	words := renderWords(sub)
	if len(words) == 0 {
		return
	}

	baseFace := fonts.Resolve(sub.Style.FontFamily, sub.Style.FontSize)
	bigFace := fonts.Resolve(sub.Style.FontFamily, int(float64(sub.Style.FontSize)*1.4))
	baseColor := parseColor(sub.Style.Color)
	space := measureString(baseFace, " ")

	// Lay the line out with the active word at its enlarged width so
	// neighbors shift aside rather than overlap.
	total := 0
	widths := make([]int, len(words))
	for i, w := range words {
		face := baseFace
		if wordActive(w, t) {
			face = bigFace
		}
		widths[i] = measureString(face, w.Word)
		total += widths[i]
		if i > 0 {
			total += space
		}
	}

	cx, cy := anchor(img, sub)
	x := cx - total/2

	for i, w := range words {
		if wordActive(w, t) {
			glowString(img, bigFace, w.Word, x, cy, 4, withAlpha(highlightGold, 70))
			drawString(img, bigFace, w.Word, x, cy, highlightGold)
		} else {
			drawString(img, baseFace, w.Word, x, cy, baseColor)
		}
		x += widths[i] + space
	}
}

// drawConfetti renders the active word large with a golden glow and a
// burst of colored particle rectangles; inactive words render faded.
func drawConfetti(img *image.RGBA, sub *models.Subtitle, t float64, fonts *FontResolver, rng *rand.Rand) {
	words := renderWords(sub)
	if len(words) == 0 {
		return
	}

	baseFace := fonts.Resolve(sub.Style.FontFamily, sub.Style.FontSize)
	bigFace := fonts.Resolve(sub.Style.FontFamily, int(float64(sub.Style.FontSize)*1.6))
	baseColor := parseColor(sub.Style.Color)
	space := measureString(baseFace, " ")

	total := 0
	widths := make([]int, len(words))
	for i, w := range words {
		face := baseFace
		if wordActive(w, t) {
			face = bigFace
		}
		widths[i] = measureString(face, w.Word)
		total += widths[i]
		if i > 0 {
			total += space
		}
	}

	cx, cy := anchor(img, sub)
	x := cx - total/2

	for i, w := range words {
		if wordActive(w, t) {
			wordCx := x + widths[i]/2
			for p := 0; p < 18; p++ {
				px := wordCx + rng.Intn(161) - 80
				py := cy + rng.Intn(101) - 70
				size := 4 + rng.Intn(5)
				col := confettiPalette[rng.Intn(len(confettiPalette))]
				fillRect(img, image.Rect(px, py, px+size, py+size), col)
			}
			glowString(img, bigFace, w.Word, x, cy, 5, withAlpha(highlightGold, 60))
			drawString(img, bigFace, w.Word, x, cy, highlightGold)
		} else {
			drawString(img, baseFace, w.Word, x, cy, withAlpha(baseColor, 90))
		}
		x += widths[i] + space
	}
}

// drawNeon renders the whole text with three concentric cyan glow passes
// of decreasing radius beneath the solid text.
func drawNeon(img *image.RGBA, sub *models.Subtitle, t float64, fonts *FontResolver) {
	face := fonts.Resolve(sub.Style.FontFamily, sub.Style.FontSize)
	cx, cy := anchor(img, sub)
	x := cx - measureString(face, sub.Text)/2

	glowString(img, face, sub.Text, x, cy, 6, withAlpha(neonCyan, 40))
	glowString(img, face, sub.Text, x, cy, 4, withAlpha(neonCyan, 70))
	glowString(img, face, sub.Text, x, cy, 2, withAlpha(neonCyan, 110))
	drawString(img, face, sub.Text, x, cy, parseColor(sub.Style.Color))
}

// typewriterReveal returns how many runes of the text are visible at
// absolute time t.
func typewriterReveal(text string, start, end, t float64) int {
	runes := len([]rune(text))
	if end <= start {
		return runes
	}
	reveal := int(math.Round(float64(runes) * (t - start) / (end - start)))
	if reveal < 0 {
		return 0
	}
	if reveal > runes {
		return runes
	}
	return reveal
}

// cursorVisible implements the 0.5 s blink cadence.
func cursorVisible(t float64) bool {
	return int(math.Floor(t/0.5))%2 == 0
}

// drawTypewriter reveals the text proportionally to elapsed time, with a
// blinking cursor appended while the reveal is incomplete.
func drawTypewriter(img *image.RGBA, sub *models.Subtitle, t float64, fonts *FontResolver) {
	face := fonts.Resolve(sub.Style.FontFamily, sub.Style.FontSize)

	runes := []rune(sub.Text)
	reveal := typewriterReveal(sub.Text, sub.StartTime, sub.EndTime, t)
	visible := string(runes[:reveal])
	if reveal < len(runes) && cursorVisible(t) {
		visible += "|"
	}

	cx, cy := anchor(img, sub)
	// Anchor on the full text so glyphs do not drift as the reveal grows.
	x := cx - measureString(face, sub.Text)/2

	bg := parseColor(sub.Style.Background)
	if !transparent(bg) {
		pad := sub.Style.Padding
		h := faceHeight(face)
		fillRect(img, image.Rect(x-pad, cy-h-pad, x+measureString(face, sub.Text)+pad, cy+pad), bg)
	}

	drawString(img, face, visible, x, cy, parseColor(sub.Style.Color))
}

// bounceCurve evaluates the elastic-ease-out curve at progress p in [0,1].
func bounceCurve(p float64) float64 {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return 1 - math.Pow(2, -10*p)*math.Cos((20*p-1.5)*math.Pi/3)
}

// bounceWindow is the time a word spends animating after its start.
const bounceWindow = 0.5

// drawBounce renders the active word with an elastic vertical displacement
// and scale-up over the half second following its start time.
func drawBounce(img *image.RGBA, sub *models.Subtitle, t float64, fonts *FontResolver) {
	words := renderWords(sub)
	if len(words) == 0 {
		return
	}

	baseFace := fonts.Resolve(sub.Style.FontFamily, sub.Style.FontSize)
	baseColor := parseColor(sub.Style.Color)
	space := measureString(baseFace, " ")

	total := 0
	widths := make([]int, len(words))
	for i, w := range words {
		widths[i] = measureString(baseFace, w.Word)
		total += widths[i]
		if i > 0 {
			total += space
		}
	}

	cx, cy := anchor(img, sub)
	x := cx - total/2

	for i, w := range words {
		if wordActive(w, t) {
			p := (t - w.StartTime) / bounceWindow
			b := bounceCurve(p)
			offset := int(math.Round(30 * (1 - b)))
			scale := 1 + 0.5*b

			face := fonts.Resolve(sub.Style.FontFamily, int(float64(sub.Style.FontSize)*scale))
			glowString(img, face, w.Word, x, cy-offset, 2, withAlpha(baseColor, 60))
			drawString(img, face, w.Word, x, cy-offset, highlightGold)
		} else {
			drawString(img, baseFace, w.Word, x, cy, baseColor)
		}
		x += widths[i] + space
	}
}

// drawStatic renders plain text with an optional background box and a
// drop shadow. This is also the path for unknown animation names.
func drawStatic(img *image.RGBA, sub *models.Subtitle, fonts *FontResolver) {
	face := fonts.Resolve(sub.Style.FontFamily, sub.Style.FontSize)
	cx, cy := anchor(img, sub)

	lines := strings.Split(sub.Text, "\n")
	h := faceHeight(face)

	for li, line := range lines {
		y := cy + li*h
		w := measureString(face, line)
		x := cx - w/2

		bg := parseColor(sub.Style.Background)
		if !transparent(bg) {
			pad := sub.Style.Padding
			fillRect(img, image.Rect(x-pad, y-h-pad/2, x+w+pad, y+pad), bg)
		}

		drawString(img, face, line, x+2, y+2, shadowBlack)
		drawString(img, face, line, x, y, parseColor(sub.Style.Color))
	}
}
