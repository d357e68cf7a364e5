package codeshot

import (
	"errors"
	"image"
	"math"
	"testing"
)

func TestRenderProducesScaledFrame(t *testing.T) {
	fonts, err := LoadFonts(FontConfig{SizeBase: 16})
	if err != nil {
		t.Fatalf("load fonts: %v", err)
	}
	cfg := DefaultConfig()
	buffer := "const answer = 42;\nconsole.log(answer);"
	findings := []Finding{{Line: 2, Message: "debug output"}, {Line: 40}}

	img, err := Render(buffer, cfg, findings, RenderOptions{Fonts: fonts, Scale: 1})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	l := Compose(buffer, cfg, findings, FontMetrics(fonts))
	want := image.Rect(0, 0, int(math.Ceil(l.Width)), int(math.Ceil(l.Height)))
	if img.Bounds() != want {
		t.Fatalf("bounds %v, want %v", img.Bounds(), want)
	}

	double, err := Render(buffer, cfg, findings, RenderOptions{Fonts: fonts, Scale: 2})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if double.Bounds().Dx() < 2*img.Bounds().Dx()-1 {
		t.Fatalf("scale 2 width %d, base %d", double.Bounds().Dx(), img.Bounds().Dx())
	}
}

func TestRenderCorners(t *testing.T) {
	cfg := DefaultConfig()
	img, err := Render("x", cfg, nil, RenderOptions{Scale: 1})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if a := img.RGBAAt(0, 0).A; a != 0 {
		t.Fatalf("expected a transparent rounded corner, alpha %d", a)
	}

	cfg.Rounded = false
	img, err = Render("x", cfg, nil, RenderOptions{Scale: 1})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	bg, _ := BackgroundByToken(cfg.Background)
	if got := img.RGBAAt(0, 0); got != bg.Stops[0] {
		t.Fatalf("corner %v, want background %v", got, bg.Stops[0])
	}
}

func TestRenderShadowDarkensPadding(t *testing.T) {
	fonts, err := LoadFonts(FontConfig{SizeBase: 16})
	if err != nil {
		t.Fatalf("load fonts: %v", err)
	}
	cfg := DefaultConfig()
	l := Compose("x", cfg, nil, FontMetrics(fonts))
	x, y := int(l.Window.X+l.Window.W/2), int(l.Window.Bottom())+8

	lum := func(shadow bool) int {
		c := cfg
		c.ShowShadow = shadow
		img, err := Render("x", c, nil, RenderOptions{Fonts: fonts, Scale: 1})
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}
		p := img.RGBAAt(x, y)
		return int(p.R) + int(p.G) + int(p.B)
	}
	if with, without := lum(true), lum(false); with >= without {
		t.Fatalf("shadow pixel %d not darker than plain %d", with, without)
	}
}

func TestRasterizeRequiresFonts(t *testing.T) {
	l := Compose("x", DefaultConfig(), nil, fixedMetrics{})
	_, err := Rasterize(l, nil, Fonts{}, 1)
	if !errors.Is(err, ErrFontsNotReady) {
		t.Fatalf("expected ErrFontsNotReady, got %v", err)
	}
}

func TestBackgroundGradientEndpoints(t *testing.T) {
	for _, bg := range Backgrounds {
		if got := bg.At(0, 0, 10, 10); bg.Direction == ToBottomRight && got != bg.Stops[0] {
			t.Fatalf("%s: start %v, want %v", bg.Token, got, bg.Stops[0])
		}
		if got := bg.At(9, 9, 10, 10); bg.Direction == ToBottomRight && got != bg.Stops[len(bg.Stops)-1] {
			t.Fatalf("%s: end %v, want %v", bg.Token, got, bg.Stops[len(bg.Stops)-1])
		}
	}
}
