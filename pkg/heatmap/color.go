package heatmap

import (
	"image/color"
	"math"
)

// RGB is a color with channels in [0, 1]
type RGB struct {
	R, G, B float64
}

// gradientStops are the segment endpoints of the heat palette, one every
// quarter of the [0, 1] range: blue, cyan, yellow, orange, red
var gradientStops = [5]RGB{
	{R: 0, G: 0, B: 1},
	{R: 0, G: 1, B: 1},
	{R: 1, G: 1, B: 0},
	{R: 1, G: 0.5, B: 0},
	{R: 1, G: 0, B: 0},
}

// Gradient maps a normalized heat value onto the four-segment palette.
// Inside each quarter every channel is interpolated linearly between the
// segment's endpoints. Values outside [0, 1] are clamped; NaN maps to 0.
func Gradient(t float64) RGB {
	if math.IsNaN(t) || t <= 0 {
		return gradientStops[0]
	}
	if t >= 1 {
		return gradientStops[4]
	}

	seg := int(t / 0.25)
	if seg > 3 {
		seg = 3
	}
	u := (t - float64(seg)*0.25) / 0.25
	a, b := gradientStops[seg], gradientStops[seg+1]
	return RGB{
		R: lerp(a.R, b.R, u),
		G: lerp(a.G, b.G, u),
		B: lerp(a.B, b.B, u),
	}
}

// Color returns Gradient(t) as an opaque 8-bit color
func Color(t float64) color.RGBA {
	c := Gradient(t)
	return color.RGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: 255}
}

func lerp(a, b, u float64) float64 {
	return a + (b-a)*u
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
