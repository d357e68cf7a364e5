package codeshot

import (
	"image"
	"image/color"
	"strings"
)

// ---- Background palette ----

// Direction of a linear gradient.
type Direction int

const (
	ToBottomRight Direction = iota
	ToTopRight
)

// Background is a gradient or solid backdrop token.
type Background struct {
	Token     string
	Direction Direction
	Stops     []color.RGBA
}

// Backgrounds is the fixed palette.
var Backgrounds = []Background{
	{Token: "purple-pink", Stops: []color.RGBA{rgb(0xa855f7), rgb(0xec4899)}},
	{Token: "cyan-blue", Stops: []color.RGBA{rgb(0x06b6d4), rgb(0x3b82f6)}},
	{Token: "orange-rose", Stops: []color.RGBA{rgb(0xfb923c), rgb(0xfb7185)}},
	{Token: "emerald-cyan", Stops: []color.RGBA{rgb(0x34d399), rgb(0x22d3ee)}},
	{Token: "indigo-purple-pink", Stops: []color.RGBA{rgb(0x6366f1), rgb(0xa855f7), rgb(0xec4899)}},
	{Token: "yellow-orange", Stops: []color.RGBA{rgb(0xfacc15), rgb(0xf97316)}},
	{Token: "slate", Direction: ToTopRight, Stops: []color.RGBA{rgb(0x0f172a), rgb(0x334155)}},
	{Token: "charcoal", Stops: []color.RGBA{rgb(0x1e1e1e)}},
	{Token: "white", Stops: []color.RGBA{rgb(0xffffff)}},
}

// BackgroundByToken looks up a palette entry.
func BackgroundByToken(token string) (Background, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	for _, b := range Backgrounds {
		if b.Token == token {
			return b, true
		}
	}
	return Background{}, false
}

// At returns the colour at (x, y) inside a w×h rectangle.
func (b Background) At(x, y, w, h int) color.RGBA {
	switch len(b.Stops) {
	case 0:
		return color.RGBA{}
	case 1:
		return b.Stops[0]
	}
	if w <= 1 && h <= 1 {
		return b.Stops[0]
	}
	fx := float64(x) / float64(max(w-1, 1))
	fy := float64(y) / float64(max(h-1, 1))
	t := (fx + fy) / 2
	if b.Direction == ToTopRight {
		t = (fx + (1 - fy)) / 2
	}
	seg := t * float64(len(b.Stops)-1)
	i := int(seg)
	if i >= len(b.Stops)-1 {
		return b.Stops[len(b.Stops)-1]
	}
	return lerpRGBA(b.Stops[i], b.Stops[i+1], seg-float64(i))
}

// Fill paints the gradient into r of dst.
func (b Background) Fill(dst *image.RGBA, r image.Rectangle) {
	r = r.Intersect(dst.Bounds())
	w, h := r.Dx(), r.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetRGBA(r.Min.X+x, r.Min.Y+y, b.At(x, y, w, h))
		}
	}
}

func rgb(v uint32) color.RGBA {
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xFF}
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	l := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5) }
	return color.RGBA{l(a.R, b.R), l(a.G, b.G), l(a.B, b.B), l(a.A, b.A)}
}
