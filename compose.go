package codeshot

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ---- Frame compositor ----

// ProductLabel is shown next to the language in the window title.
const ProductLabel = "Codeshot"

// Finding is an advisory lint result. Line is 1-based and may exceed the
// buffer's line count.
type Finding struct {
	Line    int    `json:"line" yaml:"line"`
	Message string `json:"message" yaml:"message"`
}

// Window geometry in unscaled pixels.
const (
	minSurfaceWidth  = 600
	maxSurfaceWidth  = 1200
	minSurfaceHeight = 300

	chromePadX      = 24
	chromePadY      = 16
	buttonSize      = 14
	buttonGap       = 8
	buttonsMargin   = 16
	titleSize       = 10
	titleTracking   = 4
	chromeBorder    = 1
	gutterPadLeft   = 24
	gutterPadRight  = 32
	gutterMarkSpace = 14
	gutterBorder    = 1
	surfacePad      = 32
	compactPad      = 16
	lineHeightEm    = 1.8

	frameRadius  = 24
	windowRadius = 16
)

// LayerKind orders the frame layers back to front.
type LayerKind int

const (
	LayerBackground LayerKind = iota
	LayerChrome
	LayerGutter
	LayerErrorStrip
	LayerText
	LayerInput
)

func (k LayerKind) String() string {
	switch k {
	case LayerBackground:
		return "background"
	case LayerChrome:
		return "chrome"
	case LayerGutter:
		return "gutter"
	case LayerErrorStrip:
		return "error-strip"
	case LayerText:
		return "text"
	case LayerInput:
		return "input"
	}
	return "layer(" + strconv.Itoa(int(k)) + ")"
}

type Point struct{ X, Y float64 }

type Rect struct{ X, Y, W, H float64 }

func (r Rect) Bottom() float64 { return r.Y + r.H }
func (r Rect) Right() float64  { return r.X + r.W }

// Layer is one entry of the frame's paint order.
type Layer struct {
	Kind   LayerKind
	Bounds Rect
	// Line is the 1-based source line of an error strip.
	Line int
	// Scroll is the content offset of the text and input layers.
	Scroll Point
	// Transparent layers are never painted; the input layer only captures
	// keystrokes and shows a caret.
	Transparent bool
	Caret       bool
}

// Chrome is the window title bar.
type Chrome struct {
	Bounds  Rect
	Buttons []Circle
	Title   string
	TitleAt Point
	// TitleSize and Tracking are in layout pixels.
	TitleSize float64
	Tracking  float64
}

type Circle struct {
	Center Point
	Radius float64
	Color  [3]uint8
}

// GutterRow is one line number.
type GutterRow struct {
	Number   int
	Label    string
	Baseline float64
	Right    float64
	Marked   bool
}

type Gutter struct {
	Bounds Rect
	Digits int
	Rows   []GutterRow
}

// TextMetrics is shared by the text and input layers so they stay
// pixel-aligned.
type TextMetrics struct {
	Origin     Point
	FontSize   float64
	LineHeight float64
}

// Baseline returns the baseline y of the 1-based line.
func (t TextMetrics) Baseline(line int) float64 {
	top := t.Origin.Y + float64(line-1)*t.LineHeight
	return top + (t.LineHeight-t.FontSize)/2 + t.FontSize*0.8
}

// Layout is the deterministic layered structure of one frame.
type Layout struct {
	Width, Height float64
	Config        Config
	Window        Rect
	Surface       Rect
	WindowRadius  float64
	FrameRadius   float64
	Layers        []Layer
	Chrome        *Chrome
	Gutter        *Gutter
	Text          TextMetrics
	LineCount     int
	ErrorLines    []int
}

// Layer returns the first layer of kind k.
func (l *Layout) Layer(k LayerKind) (Layer, bool) {
	for _, ly := range l.Layers {
		if ly.Kind == k {
			return ly, true
		}
	}
	return Layer{}, false
}

// ScrollTo copies one scroll offset onto both the text and input layers.
func (l *Layout) ScrollTo(x, y float64) {
	for i := range l.Layers {
		switch l.Layers[i].Kind {
		case LayerText, LayerInput:
			l.Layers[i].Scroll = Point{X: math.Max(0, x), Y: math.Max(0, y)}
		}
	}
}

// Title returns the chrome title for a language.
func Title(language string) string {
	lang := strings.TrimSpace(language)
	if lang == "" {
		lang = PlainText
	}
	return fmt.Sprintf("%s • %s", lang, ProductLabel)
}

// ErrorLines returns the distinct, sorted finding lines that exist in a
// buffer of lineCount lines.
func ErrorLines(findings []Finding, lineCount int) []int {
	var out []int
	for _, f := range findings {
		if f.Line >= 1 && f.Line <= lineCount {
			out = append(out, f.Line)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func digits(n int) int {
	return len(strconv.Itoa(max(n, 1)))
}

// Compose lays out a frame for buffer under cfg. Out-of-range findings are
// ignored; each in-range line gets exactly one strip.
func Compose(buffer string, cfg Config, findings []Finding, m Metrics) Layout {
	cfg = cfg.Normalize()
	s := cfg.FrameScale
	lineCount := LineCount(buffer)
	fontSize := cfg.FontSize
	lineHeight := fontSize * lineHeightEm
	pad := float64(surfacePad)
	if cfg.CompactMode {
		pad = compactPad
	}

	// Window-local, unscaled.
	var chromeH float64
	if cfg.ShowWindowControls {
		chromeH = chromePadY*2 + buttonSize + chromeBorder
	}

	var gutterW float64
	if cfg.ShowLineNumbers {
		gutterW = gutterPadLeft + gutterMarkSpace + m.MonoWidth(strings.Repeat("0", digits(lineCount)), fontSize) + gutterPadRight + gutterBorder
	}

	var textW float64
	for _, ln := range strings.Split(buffer, "\n") {
		textW = math.Max(textW, m.MonoWidth(expandTabs(ln), fontSize))
	}
	surfaceW := math.Min(maxSurfaceWidth, math.Max(minSurfaceWidth, gutterW+pad*2+textW))
	surfaceH := pad*2 + float64(lineCount)*lineHeight
	if !cfg.CompactMode {
		surfaceH = math.Max(minSurfaceHeight, surfaceH)
	}
	winW, winH := surfaceW, chromeH+surfaceH

	p := cfg.Padding
	l := Layout{
		Width:        math.Ceil(p*2 + winW*s),
		Height:       math.Ceil(p*2 + winH*s),
		Config:       cfg,
		Window:       Rect{X: p, Y: p, W: winW * s, H: winH * s},
		WindowRadius: 0,
		LineCount:    lineCount,
		ErrorLines:   ErrorLines(findings, lineCount),
	}
	if cfg.Rounded {
		l.WindowRadius = windowRadius * s
		l.FrameRadius = frameRadius
	}
	// sc maps window-local units to frame units.
	sc := func(x, y, w, h float64) Rect {
		return Rect{X: p + x*s, Y: p + y*s, W: w * s, H: h * s}
	}

	l.Layers = append(l.Layers, Layer{Kind: LayerBackground, Bounds: Rect{W: l.Width, H: l.Height}})

	if cfg.ShowWindowControls {
		ch := &Chrome{
			Bounds:    sc(0, 0, winW, chromeH),
			Title:     Title(cfg.Language),
			TitleSize: titleSize * s,
			Tracking:  titleTracking * s,
		}
		titleLeft := float64(chromePadX)
		if cfg.ShowWindowButtons {
			colors := [][3]uint8{{0xff, 0x5f, 0x56}, {0xff, 0xbd, 0x2e}, {0x27, 0xc9, 0x3f}}
			for i, c := range colors {
				cx := chromePadX + buttonSize/2 + float64(i)*(buttonSize+buttonGap)
				ch.Buttons = append(ch.Buttons, Circle{
					Center: Point{X: p + cx*s, Y: p + (chromePadY+buttonSize/2)*s},
					Radius: buttonSize / 2 * s,
					Color:  c,
				})
			}
			titleLeft += 3*buttonSize + 2*buttonGap + buttonsMargin
		}
		titleRight := winW - chromePadX
		label := strings.ToUpper(ch.Title)
		tw := m.TitleWidth(label, titleSize) + titleTracking*float64(max(len([]rune(label))-1, 0))
		tx := titleLeft + (titleRight-titleLeft-tw)/2
		if cfg.ShowWindowButtons {
			// Centre on the whole bar, clear of the buttons.
			tx = math.Max(titleLeft, (winW-tw)/2)
		}
		ch.TitleAt = Point{X: p + tx*s, Y: p + (chromePadY+buttonSize/2+titleSize*0.35)*s}
		l.Chrome = ch
		l.Layers = append(l.Layers, Layer{Kind: LayerChrome, Bounds: ch.Bounds})
	}

	l.Surface = sc(0, chromeH, winW, surfaceH)
	textTop := chromeH + pad
	l.Text = TextMetrics{
		Origin:     Point{X: p + (gutterW+pad)*s, Y: p + textTop*s},
		FontSize:   fontSize * s,
		LineHeight: lineHeight * s,
	}

	if cfg.ShowLineNumbers {
		g := &Gutter{Bounds: sc(0, chromeH, gutterW, surfaceH), Digits: digits(lineCount)}
		marked := make(map[int]bool, len(l.ErrorLines))
		for _, n := range l.ErrorLines {
			marked[n] = true
		}
		right := p + (gutterW-gutterPadRight-gutterBorder)*s
		for i := 1; i <= lineCount; i++ {
			g.Rows = append(g.Rows, GutterRow{
				Number:   i,
				Label:    strconv.Itoa(i),
				Baseline: l.Text.Baseline(i),
				Right:    right,
				Marked:   marked[i],
			})
		}
		l.Gutter = g
		l.Layers = append(l.Layers, Layer{Kind: LayerGutter, Bounds: g.Bounds})
	}

	codeArea := sc(gutterW, chromeH, winW-gutterW, surfaceH)
	for _, n := range l.ErrorLines {
		l.Layers = append(l.Layers, Layer{
			Kind: LayerErrorStrip,
			Line: n,
			Bounds: Rect{
				X: codeArea.X,
				Y: l.Text.Origin.Y + float64(n-1)*l.Text.LineHeight,
				W: codeArea.W,
				H: l.Text.LineHeight,
			},
		})
	}

	textBounds := Rect{X: codeArea.X, Y: codeArea.Y, W: codeArea.W, H: codeArea.H}
	l.Layers = append(l.Layers,
		Layer{Kind: LayerText, Bounds: textBounds},
		Layer{Kind: LayerInput, Bounds: textBounds, Transparent: true, Caret: true},
	)
	return l
}
