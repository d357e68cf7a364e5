package codeshot

import (
	"errors"
	"image"
)

// RenderOptions configure how a buffer is rendered to an image.
type RenderOptions struct {
	// Fonts missing here are filled from the bundled Go fonts.
	Fonts Fonts
	// Scale overrides Config.ExportScale when positive.
	Scale int
	// Scroll offsets the text layer.
	Scroll Point
	// Highlighter memoises highlighting across renders when set.
	Highlighter *Highlighter
}

// Render highlights buffer, composes the frame and rasterises it. Zero
// values select the bundled fonts and the configured export scale.
func Render(buffer string, cfg Config, findings []Finding, opts RenderOptions) (*image.RGBA, error) {
	cfg = cfg.Normalize()
	fonts, err := completeFonts(opts.Fonts, cfg.FontSize)
	if err != nil {
		return nil, err
	}

	var lines []Line
	if opts.Highlighter != nil {
		lines, err = opts.Highlighter.Lines(buffer, cfg.Language, cfg.Theme)
	} else {
		lines, err = Highlight(buffer, cfg.Language, cfg.Theme)
	}
	if err != nil {
		return nil, err
	}

	layout := Compose(buffer, cfg, findings, FontMetrics(fonts))
	layout.ScrollTo(opts.Scroll.X, opts.Scroll.Y)

	scale := cfg.ExportScale
	if opts.Scale > 0 {
		scale = opts.Scale
	}
	return Rasterize(layout, lines, fonts, scale)
}

func completeFonts(f Fonts, size float64) (Fonts, error) {
	if f.Title != nil && f.Mono != nil && f.MonoBold != nil && f.MonoItalic != nil {
		return f, nil
	}
	fallback, err := LoadFonts(FontConfig{SizeBase: size})
	if err != nil {
		return f, err
	}
	if f.Title == nil {
		f.Title = fallback.Title
	}
	if f.Mono == nil {
		f.Mono = fallback.Mono
	}
	if f.MonoBold == nil {
		f.MonoBold = fallback.MonoBold
	}
	if f.MonoItalic == nil {
		f.MonoItalic = fallback.MonoItalic
	}
	if f.Mono == nil {
		return f, errors.New("codeshot: incomplete font configuration")
	}
	return f, nil
}
