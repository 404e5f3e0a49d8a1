package avestream

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitRect(t *testing.T) {
	tests := []struct {
		name          string
		dest          image.Rectangle
		width, height int
		x, y, scale   float64
	}{
		{"wider destination", image.Rect(0, 0, 1280, 720), 640, 480, 160, 0, 1.5},
		{"taller destination", image.Rect(0, 0, 640, 960), 640, 480, 0, 240, 1},
		{"same aspect", image.Rect(0, 0, 320, 240), 640, 480, 0, 0, 0.5},
		{"offset destination", image.Rect(100, 50, 1380, 770), 640, 480, 260, 50, 1.5},
		{"empty destination", image.Rect(10, 10, 10, 40), 640, 480, 10, 10, 0},
		{"empty frame", image.Rect(0, 0, 100, 100), 0, 480, 0, 0, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			x, y, scale := fitRect(test.dest, test.width, test.height)
			assert.InDelta(t, test.x, x, 1e-9)
			assert.InDelta(t, test.y, y, 1e-9)
			assert.InDelta(t, test.scale, scale, 1e-9)
		})
	}
}

func TestFitRectStaysInside(t *testing.T) {
	dests := []image.Rectangle{
		image.Rect(0, 0, 1920, 1080),
		image.Rect(0, 0, 800, 800),
		image.Rect(20, 30, 420, 1030),
	}
	for _, dest := range dests {
		x, y, scale := fitRect(dest, 889, 500)
		assert.GreaterOrEqual(t, x, float64(dest.Min.X)-1e-9)
		assert.GreaterOrEqual(t, y, float64(dest.Min.Y)-1e-9)
		assert.LessOrEqual(t, x+889*scale, float64(dest.Max.X)+1e-9)
		assert.LessOrEqual(t, y+500*scale, float64(dest.Max.Y)+1e-9)
	}
}

func TestCalcProjection(t *testing.T) {
	geom := CalcProjection(image.Rect(0, 0, 1280, 720), 640, 480)
	x0, y0 := geom.Apply(0, 0)
	x1, y1 := geom.Apply(640, 480)
	assert.InDelta(t, 160, x0, 1e-9)
	assert.InDelta(t, 0, y0, 1e-9)
	assert.InDelta(t, 1120, x1, 1e-9)
	assert.InDelta(t, 720, y1, 1e-9)
}
