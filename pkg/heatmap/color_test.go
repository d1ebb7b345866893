package heatmap

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradientStops(t *testing.T) {
	assert.Equal(t, RGB{0, 0, 1}, Gradient(0))
	assert.Equal(t, RGB{0, 1, 1}, Gradient(0.25))
	assert.Equal(t, RGB{1, 1, 0}, Gradient(0.5))
	assert.Equal(t, RGB{1, 0.5, 0}, Gradient(0.75))
	assert.Equal(t, RGB{1, 0, 0}, Gradient(1))
}

func TestGradientMidSegments(t *testing.T) {
	c := Gradient(0.125)
	assert.InDelta(t, 0, c.R, 1e-12)
	assert.InDelta(t, 0.5, c.G, 1e-12)
	assert.InDelta(t, 1, c.B, 1e-12)

	c = Gradient(0.375)
	assert.InDelta(t, 0.5, c.R, 1e-12)
	assert.InDelta(t, 1, c.G, 1e-12)
	assert.InDelta(t, 0.5, c.B, 1e-12)

	c = Gradient(0.625)
	assert.InDelta(t, 1, c.R, 1e-12)
	assert.InDelta(t, 0.75, c.G, 1e-12)
	assert.InDelta(t, 0, c.B, 1e-12)

	c = Gradient(0.875)
	assert.InDelta(t, 1, c.R, 1e-12)
	assert.InDelta(t, 0.25, c.G, 1e-12)
	assert.InDelta(t, 0, c.B, 1e-12)
}

func TestGradientClamps(t *testing.T) {
	assert.Equal(t, Gradient(0), Gradient(-3))
	assert.Equal(t, Gradient(1), Gradient(42))
	assert.Equal(t, Gradient(0), Gradient(math.NaN()))
}

func TestColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 255, A: 255}, Color(0))
	assert.Equal(t, color.RGBA{R: 255, G: 128, B: 0, A: 255}, Color(0.75))
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 0, A: 255}, Color(1))
}
