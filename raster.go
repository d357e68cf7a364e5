package codeshot

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/golang/freetype"
	"golang.org/x/image/font"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
)

// ---- Rasterizer ----

const (
	shadowOffset = 60
	shadowBlur   = 120
	shadowAlpha  = 0.85
	markDot      = 6
	markGap      = 8
)

type canvas struct {
	img   *image.RGBA
	dc    *freetype.Context
	scale float64
	fonts Fonts
	pal   Palette
}

func newCanvas(w, h int, scale float64, fonts Fonts, pal Palette) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	dc := freetype.NewContext()
	dc.SetDPI(fontDPI)
	dc.SetHinting(font.HintingFull)
	dc.SetClip(img.Bounds())
	dc.SetDst(img)
	return &canvas{img: img, dc: dc, scale: scale, fonts: fonts, pal: pal}
}

func (c *canvas) rect(r Rect) image.Rectangle {
	s := c.scale
	return image.Rect(
		int(math.Round(r.X*s)), int(math.Round(r.Y*s)),
		int(math.Round(r.Right()*s)), int(math.Round(r.Bottom()*s)),
	)
}

func (c *canvas) setFace(fnt *FontAndFace, col color.Color, size float64) {
	c.dc.SetFont(fnt.Font)
	c.dc.SetFontSize(size * c.scale)
	c.dc.SetSrc(image.NewUniform(col))
}

func (c *canvas) fill(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

func pt(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(y * 64))}
}

// Rasterize paints l at scale device pixels per layout pixel. lines holds the
// highlighted buffer, one entry per source line.
func Rasterize(l Layout, lines []Line, fonts Fonts, scale int) (*image.RGBA, error) {
	if err := fonts.Ready(); err != nil {
		return nil, err
	}
	if scale < 1 {
		scale = 1
	}
	s := float64(scale)
	w, h := max(int(math.Ceil(l.Width*s)), 1), max(int(math.Ceil(l.Height*s)), 1)
	pal := PaletteFor(l.Config.Theme)
	bg, ok := BackgroundByToken(l.Config.Background)
	if !ok {
		bg = Backgrounds[0]
	}

	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	bg.Fill(frame, frame.Bounds())

	win := newCanvas(w, h, s, fonts, pal)
	winRect := win.rect(l.Window)
	radius := l.WindowRadius * s

	if l.Config.ShowShadow {
		drawShadow(frame, l, winRect, radius, s)
	}

	win.fill(winRect, pal.Surface)
	for _, layer := range l.Layers {
		if layer.Transparent {
			continue
		}
		switch layer.Kind {
		case LayerChrome:
			if l.Chrome != nil {
				win.drawChrome(l.Chrome)
			}
		case LayerGutter:
			if l.Gutter != nil {
				win.drawGutter(l.Gutter, l.Text, l.Config.FrameScale)
			}
		case LayerErrorStrip:
			win.fill(win.rect(layer.Bounds), pal.ErrorStrip)
		case LayerText:
			win.drawText(layer, l.Text, lines)
		}
	}

	alpha := uint8(math.Round(float64(l.Config.Opacity) * 255 / 100))
	draw.DrawMask(frame, winRect, win.img, winRect.Min, roundedMask(winRect, radius, alpha), winRect.Min, draw.Over)

	if l.FrameRadius <= 0 {
		return frame, nil
	}
	out := image.NewRGBA(frame.Bounds())
	draw.DrawMask(out, out.Bounds(), frame, image.Point{}, roundedMask(out.Bounds(), l.FrameRadius*s, 0xff), image.Point{}, draw.Src)
	return out, nil
}

func drawShadow(dst *image.RGBA, l Layout, win image.Rectangle, radius, s float64) {
	// Keep the shadow inside the padding.
	pad := l.Config.Padding * s
	fs := l.Config.FrameScale
	offset := int(math.Min(shadowOffset*fs*s, pad/2))
	blur := int(math.Min(shadowBlur*fs*s, pad))
	if pad <= 0 {
		return
	}
	m := blur / 2
	src := image.NewRGBA(image.Rect(0, 0, win.Dx()+2*m, win.Dy()+2*m))
	body := image.Rect(m, m, m+win.Dx(), m+win.Dy())
	shade := image.NewUniform(color.NRGBA{A: uint8(math.Round(shadowAlpha * 255))})
	draw.DrawMask(src, body, shade, image.Point{}, roundedMask(body, radius, 0xff), body.Min, draw.Over)
	if k := blur / 8; k > 1 {
		b := src.Bounds()
		small := image.NewRGBA(image.Rect(0, 0, max(b.Dx()/k, 1), max(b.Dy()/k, 1)))
		xdraw.BiLinear.Scale(small, small.Bounds(), src, b, xdraw.Src, nil)
		xdraw.BiLinear.Scale(src, b, small, small.Bounds(), xdraw.Src, nil)
	}
	at := win.Min.Add(image.Pt(-m, offset-m))
	draw.Draw(dst, src.Bounds().Add(at), src, image.Point{}, draw.Over)
}

func (c *canvas) drawChrome(ch *Chrome) {
	r := c.rect(ch.Bounds)
	c.fill(image.Rect(r.Min.X, r.Max.Y-max(int(c.scale), 1), r.Max.X, r.Max.Y), c.pal.Border)
	for _, b := range ch.Buttons {
		cx, cy, rad := b.Center.X*c.scale, b.Center.Y*c.scale, b.Radius*c.scale
		box := image.Rect(int(cx-rad)-1, int(cy-rad)-1, int(cx+rad)+2, int(cy+rad)+2)
		col := color.RGBA{b.Color[0], b.Color[1], b.Color[2], 0xff}
		draw.DrawMask(c.img, box, image.NewUniform(col), image.Point{}, circleMask(box, cx, cy, rad), box.Min, draw.Over)
	}
	c.setFace(c.fonts.Title, c.pal.Title, ch.TitleSize)
	c.dc.SetClip(r)
	defer c.dc.SetClip(c.img.Bounds())
	x, y := ch.TitleAt.X*c.scale, ch.TitleAt.Y*c.scale
	track := ch.Tracking * c.scale
	for _, ru := range strings.ToUpper(ch.Title) {
		adv, err := c.dc.DrawString(string(ru), pt(x, y))
		if err != nil {
			return
		}
		x = float64(adv.X)/64 + track
	}
}

func (c *canvas) drawGutter(g *Gutter, tm TextMetrics, frameScale float64) {
	r := c.rect(g.Bounds)
	c.fill(r, color.NRGBA{A: 0x33})
	c.fill(image.Rect(r.Max.X-max(int(c.scale), 1), r.Min.Y, r.Max.X, r.Max.Y), c.pal.Border)
	if len(g.Rows) == 0 {
		return
	}
	c.dc.SetClip(r)
	defer c.dc.SetClip(c.img.Bounds())
	size := tm.FontSize
	for _, row := range g.Rows {
		col := c.pal.LineNumber
		if row.Marked {
			col = c.pal.ErrorMark
		}
		c.setFace(c.fonts.Mono, col, size)
		wd := measureWidth(c.fonts.Mono, size*c.scale, row.Label)
		right := row.Right * c.scale
		base := row.Baseline * c.scale
		_, _ = c.dc.DrawString(row.Label, pt(right-wd, base))
		if row.Marked {
			rad := markDot / 2 * frameScale * c.scale
			cx := right - wd - (markGap*frameScale)*c.scale - rad
			cy := base - size*c.scale*0.35
			box := image.Rect(int(cx-rad)-1, int(cy-rad)-1, int(cx+rad)+2, int(cy+rad)+2)
			draw.DrawMask(c.img, box, image.NewUniform(c.pal.ErrorMark), image.Point{}, circleMask(box, cx, cy, rad), box.Min, draw.Over)
		}
	}
}

func (c *canvas) drawText(layer Layer, tm TextMetrics, lines []Line) {
	clip := c.rect(layer.Bounds)
	c.dc.SetClip(clip)
	defer c.dc.SetClip(c.img.Bounds())
	size := tm.FontSize
	for i, ln := range lines {
		base := (tm.Baseline(i+1) - layer.Scroll.Y) * c.scale
		if base-size*c.scale > float64(clip.Max.Y) {
			break
		}
		if base+size*c.scale < float64(clip.Min.Y) {
			continue
		}
		x := (tm.Origin.X - layer.Scroll.X) * c.scale
		for _, sp := range ln {
			c.setFace(c.fonts.styled(sp.Bold, sp.Italic), sp.Color, size)
			adv, err := c.dc.DrawString(sp.Text, pt(x, base))
			if err != nil {
				break
			}
			x = float64(adv.X) / 64
			if x > float64(clip.Max.X) {
				break
			}
		}
	}
}
