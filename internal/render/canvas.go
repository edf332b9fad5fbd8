package render

import (
	"image"
	"image/color"
	"image/draw"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// drawString draws text onto the image with its baseline at (x, y).
func drawString(img *image.RGBA, face font.Face, text string, x, y int, col color.Color) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// measureString returns the advance width of text in pixels.
func measureString(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}

// faceHeight returns the face's line height in pixels.
func faceHeight(face font.Face) int {
	return face.Metrics().Height.Ceil()
}

// fillRect fills a rectangle with the color, alpha-composited over the
// existing content.
func fillRect(img *image.RGBA, rect image.Rectangle, col color.Color) {
	draw.Draw(img, rect, image.NewUniform(col), image.Point{}, draw.Over)
}

// withAlpha returns the color with its alpha replaced.
func withAlpha(c color.RGBA, alpha uint8) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

var rgbaPattern = regexp.MustCompile(`^rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*([0-9.]+)\s*)?\)$`)

// parseColor parses "#RRGGBB", "rgb(...)"/"rgba(...)" and "transparent"
// color notations. Unparseable values come back as opaque white.
func parseColor(s string) color.RGBA {
	s = strings.TrimSpace(s)

	if s == "" || strings.EqualFold(s, "transparent") {
		return color.RGBA{}
	}

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 6 {
			r, errR := strconv.ParseUint(hex[0:2], 16, 8)
			g, errG := strconv.ParseUint(hex[2:4], 16, 8)
			b, errB := strconv.ParseUint(hex[4:6], 16, 8)
			if errR == nil && errG == nil && errB == nil {
				return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
			}
		}
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}

	if m := rgbaPattern.FindStringSubmatch(s); m != nil {
		r, _ := strconv.Atoi(m[1])
		g, _ := strconv.Atoi(m[2])
		b, _ := strconv.Atoi(m[3])
		a := 255.0
		if m[4] != "" {
			if f, err := strconv.ParseFloat(m[4], 64); err == nil {
				a = f * 255
			}
		}
		return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)}
	}

	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

// transparent reports whether a parsed color draws nothing.
func transparent(c color.RGBA) bool {
	return c.A == 0
}
