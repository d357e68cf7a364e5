package codeshot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonoitalic"
)

// ---- Font loading ----

// fontDPI makes one point equal one logical pixel.
const fontDPI = 72

var ErrFontsNotReady = errors.New("fonts not ready")

type FontAndFace struct {
	Font     *truetype.Font
	Face     font.Face
	baseSize float64
}

type Fonts struct {
	Title      *FontAndFace
	Mono       *FontAndFace
	MonoBold   *FontAndFace
	MonoItalic *FontAndFace
}

type FontConfig struct {
	TitlePath      string
	MonoPath       string
	MonoBoldPath   string
	MonoItalicPath string
	SizeBase       float64 // code font size in px
}

func loadFontAndFace(ttfBytes []byte, size float64) (*FontAndFace, error) {
	ft, err := truetype.Parse(ttfBytes)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(ft, &truetype.Options{Size: size, DPI: fontDPI, Hinting: font.HintingFull})
	return &FontAndFace{
		Font:     ft,
		Face:     face,
		baseSize: size,
	}, nil
}

func loadOne(path string, fallback []byte, size float64) (*FontAndFace, error) {
	if path == "" {
		return loadFontAndFace(fallback, size)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ff, err := loadFontAndFace(b, size)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ff, nil
}

// LoadFonts parses the four faces at cfg.SizeBase. Any path left empty
// uses the matching Go font: bold for the chrome title, Go Mono for code.
func LoadFonts(cfg FontConfig) (Fonts, error) {
	var f Fonts
	var err error
	if cfg.SizeBase <= 0 {
		cfg.SizeBase = DefaultConfig().FontSize
	}
	if f.Title, err = loadOne(cfg.TitlePath, gobold.TTF, cfg.SizeBase); err != nil {
		return f, err
	}
	if f.Mono, err = loadOne(cfg.MonoPath, gomono.TTF, cfg.SizeBase); err != nil {
		return f, err
	}
	if f.MonoBold, err = loadOne(cfg.MonoBoldPath, gomonobold.TTF, cfg.SizeBase); err != nil {
		return f, err
	}
	if f.MonoItalic, err = loadOne(cfg.MonoItalicPath, gomonoitalic.TTF, cfg.SizeBase); err != nil {
		return f, err
	}
	return f, nil
}

// Ready reports whether every face is loaded and can draw digits, the
// glyphs the gutter depends on.
func (f Fonts) Ready() error {
	for name, ff := range map[string]*FontAndFace{
		"title":       f.Title,
		"mono":        f.Mono,
		"mono bold":   f.MonoBold,
		"mono italic": f.MonoItalic,
	} {
		if ff == nil || ff.Font == nil || ff.Face == nil {
			return fmt.Errorf("%w: %s face missing", ErrFontsNotReady, name)
		}
		if ff.Font.Index('0') == 0 {
			return fmt.Errorf("%w: %s face has no digit glyphs", ErrFontsNotReady, name)
		}
	}
	return nil
}

func (f Fonts) styled(bold, italic bool) *FontAndFace {
	switch {
	case bold && f.MonoBold != nil:
		return f.MonoBold
	case italic && f.MonoItalic != nil:
		return f.MonoItalic
	}
	return f.Mono
}

func measureWidth(fnt *FontAndFace, size float64, s string) float64 {
	if fnt == nil || s == "" {
		return 0
	}
	d := font.Drawer{Face: fnt.Face, Src: image.NewUniform(color.Black)}
	// Advances are in 26.6 fixed point at the face's own size.
	width := float64(d.MeasureString(s)) / 64
	base := fnt.baseSize
	if base <= 0 {
		base = size
	}
	if base <= 0 {
		base = 1
	}
	if size <= 0 {
		size = base
	}
	if size != base {
		width *= size / base
	}
	return width
}

// ---- Metrics ----

// Metrics measures text for layout.
type Metrics interface {
	// MonoWidth is the advance of s in the code font at size px.
	MonoWidth(s string, size float64) float64
	// TitleWidth is the advance of s in the chrome title font at size px.
	TitleWidth(s string, size float64) float64
}

type fontMetrics struct{ f Fonts }

// FontMetrics adapts loaded faces to Metrics.
func FontMetrics(f Fonts) Metrics { return fontMetrics{f} }

func (m fontMetrics) MonoWidth(s string, size float64) float64 {
	return measureWidth(m.f.Mono, size, s)
}

func (m fontMetrics) TitleWidth(s string, size float64) float64 {
	return measureWidth(m.f.Title, size, s)
}
