package codeshot

import (
	"math"
	"strings"
	"testing"
)

type fixedMetrics struct{}

func (fixedMetrics) MonoWidth(s string, size float64) float64 {
	return float64(len([]rune(s))) * size * 0.6
}

func (fixedMetrics) TitleWidth(s string, size float64) float64 {
	return float64(len([]rune(s))) * size * 0.7
}

func tenLines() string {
	return strings.TrimSuffix(strings.Repeat("let x = 1;\n", 10), "\n")
}

func strips(l Layout) []Layer {
	var out []Layer
	for _, ly := range l.Layers {
		if ly.Kind == LayerErrorStrip {
			out = append(out, ly)
		}
	}
	return out
}

func TestComposeMarksOnlyFindingLines(t *testing.T) {
	l := Compose(tenLines(), DefaultConfig(), []Finding{{Line: 5, Message: "unused"}}, fixedMetrics{})
	if l.LineCount != 10 {
		t.Fatalf("expected 10 lines, got %d", l.LineCount)
	}
	if l.Gutter == nil || len(l.Gutter.Rows) != 10 {
		t.Fatalf("expected a gutter with 10 rows")
	}
	for _, row := range l.Gutter.Rows {
		if row.Marked != (row.Number == 5) {
			t.Fatalf("row %d marked=%v", row.Number, row.Marked)
		}
	}
	s := strips(l)
	if len(s) != 1 || s[0].Line != 5 {
		t.Fatalf("expected one strip on line 5, got %+v", s)
	}
	if s[0].Bounds.H != l.Text.LineHeight {
		t.Fatalf("strip height %v, want one line height %v", s[0].Bounds.H, l.Text.LineHeight)
	}
	wantY := l.Text.Origin.Y + 4*l.Text.LineHeight
	if math.Abs(s[0].Bounds.Y-wantY) > 1e-9 {
		t.Fatalf("strip y %v, want %v", s[0].Bounds.Y, wantY)
	}
}

func TestComposeIgnoresOutOfRangeFindings(t *testing.T) {
	findings := []Finding{{Line: 0}, {Line: -3}, {Line: 11}, {Line: 500}, {Line: 2}, {Line: 2}}
	l := Compose(tenLines(), DefaultConfig(), findings, fixedMetrics{})
	s := strips(l)
	if len(s) != 1 || s[0].Line != 2 {
		t.Fatalf("expected a single strip on line 2, got %+v", s)
	}
	if got := ErrorLines(findings, 10); len(got) != 1 || got[0] != 2 {
		t.Fatalf("ErrorLines = %v", got)
	}
}

func TestComposeLayerOrder(t *testing.T) {
	l := Compose(tenLines(), DefaultConfig(), []Finding{{Line: 3}, {Line: 1}}, fixedMetrics{})
	for i := 1; i < len(l.Layers); i++ {
		if l.Layers[i].Kind < l.Layers[i-1].Kind {
			t.Fatalf("layer %d (%v) painted after %v", i, l.Layers[i].Kind, l.Layers[i-1].Kind)
		}
	}
	in, ok := l.Layer(LayerInput)
	if !ok || !in.Transparent {
		t.Fatalf("expected a transparent input layer")
	}
	if l.Layers[len(l.Layers)-1].Kind != LayerInput {
		t.Fatalf("input layer must be topmost")
	}
}

func TestScrollToKeepsTextAndInputAligned(t *testing.T) {
	l := Compose(tenLines(), DefaultConfig(), nil, fixedMetrics{})
	l.ScrollTo(12, 40)
	text, _ := l.Layer(LayerText)
	in, _ := l.Layer(LayerInput)
	if text.Scroll != in.Scroll || text.Bounds != in.Bounds {
		t.Fatalf("text %+v and input %+v diverged", text, in)
	}
	if text.Scroll != (Point{X: 12, Y: 40}) {
		t.Fatalf("unexpected scroll %+v", text.Scroll)
	}
}

func TestComposeToggles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShowWindowControls = false
	cfg.ShowLineNumbers = false
	cfg.Rounded = false
	l := Compose("x", cfg, []Finding{{Line: 1}}, fixedMetrics{})
	if l.Chrome != nil || l.Gutter != nil {
		t.Fatalf("expected no chrome and no gutter")
	}
	if _, ok := l.Layer(LayerChrome); ok {
		t.Fatalf("unexpected chrome layer")
	}
	if l.WindowRadius != 0 || l.FrameRadius != 0 {
		t.Fatalf("expected square corners")
	}
	if len(strips(l)) != 1 {
		t.Fatalf("strips are independent of the gutter")
	}

	cfg = DefaultConfig()
	cfg.ShowWindowButtons = false
	l = Compose("x", cfg, nil, fixedMetrics{})
	if l.Chrome == nil || len(l.Chrome.Buttons) != 0 {
		t.Fatalf("expected chrome without buttons")
	}
	if l.Chrome.Title != "javascript • Codeshot" {
		t.Fatalf("unexpected title %q", l.Chrome.Title)
	}
}

func TestComposeFrameGeometry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Padding = 40
	cfg.FrameScale = 2
	l := Compose(strings.Repeat("x", 2000), cfg, nil, fixedMetrics{})
	if l.Window.W != maxSurfaceWidth*2 {
		t.Fatalf("window width %v, want clamp at %v", l.Window.W, maxSurfaceWidth*2)
	}
	if l.Width != math.Ceil(2*40+l.Window.W) || l.Height != math.Ceil(2*40+l.Window.H) {
		t.Fatalf("frame %vx%v does not contain window %+v", l.Width, l.Height, l.Window)
	}

	cfg.CompactMode = false
	l = Compose("x", cfg, nil, fixedMetrics{})
	if l.Surface.H < minSurfaceHeight*2 {
		t.Fatalf("surface height %v below minimum", l.Surface.H)
	}
	if l.Window.W != minSurfaceWidth*2 {
		t.Fatalf("window width %v, want minimum %v", l.Window.W, minSurfaceWidth*2)
	}
}

func TestGutterWidthGrowsWithDigits(t *testing.T) {
	short := Compose(tenLines(), DefaultConfig(), nil, fixedMetrics{})
	long := Compose(strings.Repeat("\n", 120), DefaultConfig(), nil, fixedMetrics{})
	if long.Gutter.Digits != 3 || short.Gutter.Digits != 2 {
		t.Fatalf("digits %d and %d", short.Gutter.Digits, long.Gutter.Digits)
	}
	if long.Gutter.Bounds.W <= short.Gutter.Bounds.W {
		t.Fatalf("expected a wider gutter for more digits")
	}
}
