package charts

import (
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ylOrRd is the 9-class ColorBrewer yellow-orange-red scale.
var ylOrRd = []drawing.Color{
	drawing.ColorFromHex("ffffcc"),
	drawing.ColorFromHex("ffeda0"),
	drawing.ColorFromHex("fed976"),
	drawing.ColorFromHex("feb24c"),
	drawing.ColorFromHex("fd8d3c"),
	drawing.ColorFromHex("fc4e2a"),
	drawing.ColorFromHex("e31a1c"),
	drawing.ColorFromHex("bd0026"),
	drawing.ColorFromHex("800026"),
}

// Chart colours.
var (
	colorPositive    = drawing.ColorFromHex("2ca02c")
	colorNegative    = drawing.ColorFromHex("d62728")
	colorSpot        = drawing.ColorFromHex("ff0000")
	colorMaxPain     = drawing.ColorFromHex("800080")
	colorVolTrigger  = drawing.ColorFromHex("daa520")
	colorSupportWall = drawing.ColorFromHex("0000ff")
	colorAxis        = drawing.ColorFromHex("000000")
	colorText        = drawing.ColorFromHex("333333")
	colorBackground  = drawing.ColorFromHex("ffffff")
	colorGrid        = drawing.ColorFromHex("ffffff")
)

// scaleColor maps t in [0, 1] onto ylOrRd with linear interpolation.
func scaleColor(t float64) drawing.Color {
	if math.IsNaN(t) || t <= 0 {
		return ylOrRd[0]
	}
	if t >= 1 {
		return ylOrRd[len(ylOrRd)-1]
	}

	pos := t * float64(len(ylOrRd)-1)
	i := int(pos)
	frac := pos - float64(i)
	a, b := ylOrRd[i], ylOrRd[i+1]
	return drawing.Color{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: 255,
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// withAlpha returns c with its alpha channel replaced.
func withAlpha(c drawing.Color, alpha uint8) drawing.Color {
	c.A = alpha
	return c
}
