// Package tokens resolves a plan's design tokens into a concrete style
// configuration.
//
// Resolution is a total, pure function: every input string (empty,
// unrecognized, or valid) maps to a valid [StyleConfig], and identical inputs
// always produce identical outputs, so callers may memoize freely.
//
// Tokens are resolved independently of one another. The only token that
// depends on context is the theme, which is interpreted relative to the
// layout mode's base polarity (dashboard and creative layouts sit on a dark
// surface):
//
//	cfg := tokens.Resolve(p.Tokens, p.LayoutMode)
//	fmt.Println(cfg.Classes())
package tokens

import (
	"slices"
	"strings"

	"github.com/matzehuels/pagesmith/pkg/core/plan"
)

// Palette is the resolved colour scheme.
type Palette string

// Palettes.
const (
	PaletteNeutral Palette = "neutral"
	PaletteDark    Palette = "dark"
	PaletteBlue    Palette = "blue"
)

// Tone is the resolved typographic voice.
type Tone string

// Tones.
const (
	ToneCorporate Tone = "corporate"
	ToneMinimal   Tone = "minimal"
	ToneBold      Tone = "bold"
)

// Density is the resolved spacing scale.
type Density string

// Densities.
const (
	DensitySpacious Density = "spacious"
	DensityCompact  Density = "compact"
)

// Radius is the resolved corner rounding.
type Radius string

// Radii.
const (
	RadiusSmall  Radius = "sm"
	RadiusMedium Radius = "md"
	RadiusLarge  Radius = "lg"
)

// Theme polarities understood by the resolver. Any other non-empty theme is
// passed through as a marker.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// MarkerInverted is added when the theme requests the opposite polarity of
// the layout's base surface.
const MarkerInverted = "inverted"

// StyleConfig is a fully resolved visual configuration.
type StyleConfig struct {
	Palette  Palette  `json:"palette"`
	Tone     Tone     `json:"tone"`
	Density  Density  `json:"density"`
	Radius   Radius   `json:"radius"`
	Inverted bool     `json:"inverted,omitempty"`
	Markers  []string `json:"markers,omitempty"`
}

// Default returns the configuration used when a plan carries no tokens.
func Default() StyleConfig {
	return StyleConfig{
		Palette: PaletteNeutral,
		Tone:    ToneCorporate,
		Density: DensitySpacious,
		Radius:  RadiusMedium,
	}
}

// Resolve maps tokens and a layout mode to a style configuration.
// A nil tokens record yields [Default] regardless of mode.
func Resolve(t *plan.Tokens, mode plan.LayoutMode) StyleConfig {
	if t == nil {
		return Default()
	}
	cfg := StyleConfig{
		Palette: resolvePalette(t.Palette),
		Tone:    resolveTone(t.Tone),
		Density: resolveDensity(t.Density),
		Radius:  resolveRadius(t.Radius),
	}
	applyTheme(&cfg, t.Theme, mode.IsDarkBase())
	return cfg
}

func resolvePalette(s string) Palette {
	switch Palette(s) {
	case PaletteDark, PaletteBlue:
		return Palette(s)
	}
	return PaletteNeutral
}

func resolveTone(s string) Tone {
	switch Tone(s) {
	case ToneMinimal, ToneBold:
		return Tone(s)
	}
	return ToneCorporate
}

func resolveDensity(s string) Density {
	if Density(s) == DensityCompact {
		return DensityCompact
	}
	return DensitySpacious
}

func resolveRadius(s string) Radius {
	switch Radius(s) {
	case RadiusSmall, RadiusLarge:
		return Radius(s)
	}
	return RadiusMedium
}

// applyTheme interprets theme relative to the base polarity. Requesting the
// base's own polarity is a no-op; the opposite polarity inverts; anything else
// is recorded verbatim.
func applyTheme(cfg *StyleConfig, theme string, darkBase bool) {
	switch theme {
	case "":
		return
	case ThemeDark, ThemeLight:
		if (theme == ThemeDark) == darkBase {
			return
		}
		cfg.Inverted = true
		cfg.addMarker(MarkerInverted)
	default:
		cfg.addMarker(theme)
	}
}

func (c *StyleConfig) addMarker(m string) {
	if !slices.Contains(c.Markers, m) {
		c.Markers = append(c.Markers, m)
	}
}

// Equal reports whether two configurations are identical.
func (c StyleConfig) Equal(o StyleConfig) bool {
	return c.Palette == o.Palette &&
		c.Tone == o.Tone &&
		c.Density == o.Density &&
		c.Radius == o.Radius &&
		c.Inverted == o.Inverted &&
		slices.Equal(c.Markers, o.Markers)
}

// HasMarker reports whether m is among the configuration's markers.
func (c StyleConfig) HasMarker(m string) bool {
	return slices.Contains(c.Markers, m)
}

var paletteClasses = map[Palette]string{
	PaletteDark:    "bg-gray-900 text-white",
	PaletteBlue:    "bg-blue-900 text-blue-50",
	PaletteNeutral: "bg-gray-50 text-gray-900",
}

// Inverted surfaces swap the palette's background and foreground.
var invertedPaletteClasses = map[Palette]string{
	PaletteDark:    "bg-white text-gray-900",
	PaletteBlue:    "bg-blue-50 text-blue-900",
	PaletteNeutral: "bg-gray-900 text-gray-50",
}

var toneClasses = map[Tone]string{
	ToneMinimal:   "font-light tracking-wider",
	ToneBold:      "font-black tracking-tighter",
	ToneCorporate: "font-medium tracking-normal",
}

var densityClasses = map[Density]string{
	DensityCompact:  "p-4 md:p-8",
	DensitySpacious: "p-12 md:p-24",
}

var radiusClasses = map[Radius]string{
	RadiusSmall:  "rounded-sm",
	RadiusLarge:  "rounded-3xl",
	RadiusMedium: "rounded-xl",
}

// Classes renders the configuration as a utility-class string.
func (c StyleConfig) Classes() string {
	palette := paletteClasses[c.Palette]
	if c.Inverted {
		palette = invertedPaletteClasses[c.Palette]
	}
	parts := []string{
		palette,
		toneClasses[c.Tone],
		densityClasses[c.Density],
		radiusClasses[c.Radius],
	}
	for _, m := range c.Markers {
		parts = append(parts, "theme-"+m)
	}
	return strings.Join(parts, " ")
}
