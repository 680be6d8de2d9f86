package viz

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// DefaultColorMap is the preset used when a request names no color map or an
// unknown one, matching the dashboard's default.
const DefaultColorMap = "Cool to Warm"

// rainbowSteps is the color resolution of the sampled rainbow and grayscale
// transfer functions.
const rainbowSteps = 256

// ColorMapPresets lists the preset names the dashboard offers.
func ColorMapPresets() []string {
	return []string{
		"Cool to Warm",
		"Blue to Red Rainbow",
		"Viridis",
		"Plasma",
		"Inferno",
		"Hot",
		"Jet",
		"Grayscale",
	}
}

// LookupColorMap resolves a preset name to a color transfer function. The
// returned name is the preset actually used: unknown names fall back to the
// default rather than erroring.
func LookupColorMap(name string) (string, palette.ColorMap) {
	switch name {
	case "Cool to Warm":
		return name, moreland.SmoothBlueRed()
	case "Blue to Red Rainbow":
		return name, newPaletteMap(palette.Rainbow(rainbowSteps, palette.Blue, palette.Red, 1, 1, 1))
	case "Viridis":
		return name, moreland.ExtendedKindlmann()
	case "Plasma":
		return name, moreland.Kindlmann()
	case "Inferno":
		return name, moreland.ExtendedBlackBody()
	case "Hot":
		return name, moreland.BlackBody()
	case "Jet":
		return name, newPaletteMap(palette.Rainbow(rainbowSteps, palette.Blue, palette.Red, 1, 1, 1))
	case "Grayscale":
		return name, newPaletteMap(grayscale(rainbowSteps))
	default:
		name, cm := LookupColorMap(DefaultColorMap)
		return name, cm
	}
}

func grayscale(n int) palette.Palette {
	colors := make(colorSlice, n)
	for i := range colors {
		v := uint8(i * 255 / (n - 1))
		colors[i] = color.NRGBA{R: v, G: v, B: v, A: 255}
	}
	return colors
}

type colorSlice []color.Color

func (p colorSlice) Colors() []color.Color { return p }

// paletteMap adapts a fixed palette.Palette to the palette.ColorMap
// interface so the sampled presets can drive the same rendering path as the
// continuous moreland maps.
type paletteMap struct {
	colors   []color.Color
	min, max float64
	alpha    float64
}

func newPaletteMap(p palette.Palette) *paletteMap {
	return &paletteMap{colors: p.Colors(), alpha: 1}
}

func (m *paletteMap) At(v float64) (color.Color, error) {
	if len(m.colors) == 0 {
		return nil, fmt.Errorf("color map has no colors")
	}
	if m.max <= m.min {
		return nil, fmt.Errorf("color map max must be greater than min")
	}
	if v < m.min || v > m.max {
		return nil, fmt.Errorf("value %g out of range [%g, %g]", v, m.min, m.max)
	}
	frac := (v - m.min) / (m.max - m.min)
	idx := int(frac*float64(len(m.colors)-1) + 0.5)
	return m.colors[idx], nil
}

func (m *paletteMap) Max() float64         { return m.max }
func (m *paletteMap) SetMax(v float64)     { m.max = v }
func (m *paletteMap) Min() float64         { return m.min }
func (m *paletteMap) SetMin(v float64)     { m.min = v }
func (m *paletteMap) Alpha() float64       { return m.alpha }
func (m *paletteMap) SetAlpha(a float64)   { m.alpha = a }
func (m *paletteMap) Palette(colors int) palette.Palette {
	if colors <= 1 || colors >= len(m.colors) {
		return colorSlice(m.colors)
	}
	out := make(colorSlice, colors)
	for i := range out {
		out[i] = m.colors[i*(len(m.colors)-1)/(colors-1)]
	}
	return out
}
