package codeshot

import (
	"image"
	"image/color"
	"math"
)

// coverageMask is an anti-aliased alpha mask defined by a coverage function
// sampled at pixel centres.
type coverageMask struct {
	bounds image.Rectangle
	alpha  uint8
	cover  func(x, y float64) float64
}

func (m *coverageMask) ColorModel() color.Model { return color.AlphaModel }
func (m *coverageMask) Bounds() image.Rectangle { return m.bounds }

func (m *coverageMask) At(x, y int) color.Color {
	if !image.Pt(x, y).In(m.bounds) {
		return color.Alpha{}
	}
	c := m.cover(float64(x)+0.5, float64(y)+0.5)
	return color.Alpha{A: uint8(math.Round(clampFloat(c, 0, 1) * float64(m.alpha)))}
}

// roundedMask covers r with corners of the given radius.
func roundedMask(r image.Rectangle, radius float64, alpha uint8) image.Image {
	radius = math.Min(radius, float64(min(r.Dx(), r.Dy()))/2)
	x0, y0 := float64(r.Min.X), float64(r.Min.Y)
	x1, y1 := float64(r.Max.X), float64(r.Max.Y)
	return &coverageMask{bounds: r, alpha: alpha, cover: func(x, y float64) float64 {
		if radius <= 0 {
			return 1
		}
		cx := math.Max(x0+radius, math.Min(x, x1-radius))
		cy := math.Max(y0+radius, math.Min(y, y1-radius))
		d := math.Hypot(x-cx, y-cy)
		return radius - d + 0.5
	}}
}

// circleMask covers the disc at (cx, cy) clipped to box.
func circleMask(box image.Rectangle, cx, cy, radius float64) image.Image {
	return &coverageMask{bounds: box, alpha: 0xff, cover: func(x, y float64) float64 {
		return radius - math.Hypot(x-cx, y-cy) + 0.5
	}}
}
