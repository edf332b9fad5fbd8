package preset

import (
	"sort"

	"github.com/captionforge/captionforge/pkg/models"
)

// Catalog holds the named style and position presets. It is built once at
// process start and never mutated; lookups hand out copies so callers can
// edit freely.
type Catalog struct {
	styles    map[string]models.Style
	positions map[string]models.Position
}

// Default names used when a generation request does not pick presets.
const (
	DefaultStyle    = "simple"
	DefaultPosition = "bottom_center"
)

// Default builds the built-in preset catalog.
func Default() *Catalog {
	return &Catalog{
		styles: map[string]models.Style{
			"simple": {
				FontFamily: "Arial",
				FontSize:   32,
				FontWeight: "bold",
				Color:      "#FFFFFF",
				Background: "rgba(0,0,0,0.7)",
				Padding:    12,
				TextAlign:  "center",
			},
			"minimal": {
				FontFamily: "Helvetica",
				FontSize:   28,
				FontWeight: "normal",
				Color:      "#FFFFFF",
				Background: "transparent",
				Padding:    8,
				TextAlign:  "center",
			},
			"bold": {
				FontFamily:   "Impact",
				FontSize:     42,
				FontWeight:   "bold",
				Color:        "#FFFF00",
				Background:   "rgba(0,0,0,0.85)",
				Padding:      16,
				BorderRadius: 8,
				TextAlign:    "center",
			},
			"highlight": {
				FontFamily:   "Arial",
				FontSize:     34,
				FontWeight:   "bold",
				Color:        "#000000",
				Background:   "#FFE135",
				Padding:      14,
				BorderRadius: 6,
				TextAlign:    "center",
			},
			"bubbles": {
				FontFamily: "Arial Rounded MT Bold",
				FontSize:   36,
				FontWeight: "bold",
				Color:      "#FFFFFF",
				Background: "transparent",
				Padding:    12,
				Animation:  models.AnimationBubbles,
				TextAlign:  "center",
			},
			"confetti": {
				FontFamily: "Arial",
				FontSize:   38,
				FontWeight: "bold",
				Color:      "#FFFFFF",
				Background: "transparent",
				Padding:    12,
				Animation:  models.AnimationConfetti,
				TextAlign:  "center",
			},
			"neon": {
				FontFamily: "Arial",
				FontSize:   36,
				FontWeight: "bold",
				Color:      "#00FFFF",
				Background: "transparent",
				Padding:    12,
				Animation:  models.AnimationNeon,
				TextAlign:  "center",
			},
			"typewriter": {
				FontFamily: "Courier New",
				FontSize:   32,
				FontWeight: "normal",
				Color:      "#00FF00",
				Background: "rgba(0,0,0,0.8)",
				Padding:    12,
				Animation:  models.AnimationTypewriter,
				TextAlign:  "left",
			},
			"bounce": {
				FontFamily: "Arial Black",
				FontSize:   38,
				FontWeight: "bold",
				Color:      "#FFFFFF",
				Background: "transparent",
				Padding:    12,
				Animation:  models.AnimationBounce,
				TextAlign:  "center",
			},
		},
		positions: map[string]models.Position{
			"bottom_center": {X: 50, Y: 85},
			"bottom_left":   {X: 20, Y: 85},
			"bottom_right":  {X: 80, Y: 85},
			"center":        {X: 50, Y: 50},
			"top_center":    {X: 50, Y: 12},
		},
	}
}

// Style returns a copy of the named style preset. The second return is
// false when the name is unknown.
func (c *Catalog) Style(name string) (models.Style, bool) {
	s, ok := c.styles[name]
	return s, ok
}

// StyleOrDefault returns the named style, falling back to the simple
// preset for unknown names.
func (c *Catalog) StyleOrDefault(name string) models.Style {
	if s, ok := c.styles[name]; ok {
		return s
	}
	return c.styles[DefaultStyle]
}

// Position returns a copy of the named position preset.
func (c *Catalog) Position(name string) (models.Position, bool) {
	p, ok := c.positions[name]
	return p, ok
}

// PositionOrDefault returns the named position, falling back to
// bottom_center for unknown names.
func (c *Catalog) PositionOrDefault(name string) models.Position {
	if p, ok := c.positions[name]; ok {
		return p
	}
	return c.positions[DefaultPosition]
}

// StyleNames lists the style preset names in sorted order.
func (c *Catalog) StyleNames() []string {
	names := make([]string, 0, len(c.styles))
	for name := range c.styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PositionNames lists the position preset names in sorted order.
func (c *Catalog) PositionNames() []string {
	names := make([]string, 0, len(c.positions))
	for name := range c.positions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Styles returns a copy of the full style table, keyed by preset name.
func (c *Catalog) Styles() map[string]models.Style {
	out := make(map[string]models.Style, len(c.styles))
	for name, s := range c.styles {
		out[name] = s
	}
	return out
}

// Positions returns a copy of the full position table.
func (c *Catalog) Positions() map[string]models.Position {
	out := make(map[string]models.Position, len(c.positions))
	for name, p := range c.positions {
		out[name] = p
	}
	return out
}
