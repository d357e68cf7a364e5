package codeshot

import (
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// ---- Syntax renderer ----

const tabWidth = 4

// Span is a run of text sharing one style.
type Span struct {
	Text   string
	Color  color.RGBA
	Bold   bool
	Italic bool
}

// Line is one highlighted source line, without its newline.
type Line []Span

// Text returns the plain text of the line.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Palette holds the surface colours derived from a chroma style.
type Palette struct {
	Surface    color.RGBA
	Foreground color.RGBA
	LineNumber color.RGBA
	ErrorMark  color.RGBA
	ErrorStrip color.NRGBA
	Border     color.NRGBA
	Title      color.RGBA
}

var grammarAliases = map[string]string{
	"js":         "javascript",
	"javascript": "javascript",
	"ts":         "typescript",
	"typescript": "typescript",
	"py":         "python",
	"python":     "python",
	"plain text": "plaintext",
	"text":       "plaintext",
	"plaintext":  "plaintext",
	"jsx":        "react",
	"tsx":        "typescript",
	"css":        "css",
	"rust":       "rust",
	"bash":       "bash",
	"shell":      "bash",
	"json":       "json",
	"markdown":   "markdown",
	"cpp":        "c++",
	"c++":        "c++",
	"csharp":     "c#",
	"c#":         "c#",
	"golang":     "go",
}

const fallbackGrammar = "javascript"

// ResolveGrammar maps a configured language to the chroma lexer name used to
// highlight it. Unknown languages fall back to javascript.
func ResolveGrammar(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	if g, ok := grammarAliases[l]; ok {
		return g
	}
	if l != "" {
		if lx := lexers.Get(l); lx != nil {
			return strings.ToLower(lx.Config().Name)
		}
	}
	return fallbackGrammar
}

func lexerFor(grammar string) chroma.Lexer {
	lx := lexers.Get(grammar)
	if lx == nil {
		lx = lexers.Get(fallbackGrammar)
	}
	if lx == nil {
		lx = lexers.Fallback
	}
	return chroma.Coalesce(lx)
}

// StyleFor returns the chroma style behind a theme value.
func StyleFor(theme string) *chroma.Style {
	t, ok := ThemeByValue(theme)
	if !ok {
		t, _ = ThemeByValue(DefaultConfig().Theme)
	}
	return styles.Get(t.Chroma)
}

// PaletteFor derives surface colours from a theme.
func PaletteFor(theme string) Palette {
	st := StyleFor(theme)
	bg := st.Get(chroma.Background)
	surface := rgb(0x1e1e1e)
	if bg.Background.IsSet() {
		surface = colourRGBA(bg.Background)
	}
	fg := rgb(0xf8f8f2)
	if bg.Colour.IsSet() {
		fg = colourRGBA(bg.Colour)
	}
	lineNo := rgb(0x334155)
	if c := st.Get(chroma.Comment); c.Colour.IsSet() {
		lineNo = colourRGBA(c.Colour)
	}
	return Palette{
		Surface:    surface,
		Foreground: fg,
		LineNumber: lineNo,
		ErrorMark:  rgb(0xf43f5e),
		ErrorStrip: color.NRGBA{0xf4, 0x3f, 0x5e, 0x1a},
		Border:     color.NRGBA{0xff, 0xff, 0xff, 0x0d},
		Title:      rgb(0x64748b),
	}
}

// Highlight tokenises text with the grammar resolved from language and
// colours it with the named theme. The result has exactly one Line per
// source line.
func Highlight(text, language, theme string) ([]Line, error) {
	grammar := ResolveGrammar(language)
	it, err := lexerFor(grammar).Tokenise(nil, text)
	if err != nil {
		return nil, fmt.Errorf("tokenise %s: %w", grammar, err)
	}
	st := StyleFor(theme)
	lines := []Line{{}}
	for _, tok := range it.Tokens() {
		entry := st.Get(tok.Type)
		span := Span{
			Color:  colourRGBA(entry.Colour),
			Bold:   entry.Bold == chroma.Yes,
			Italic: entry.Italic == chroma.Yes,
		}
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, Line{})
			}
			if part == "" {
				continue
			}
			span.Text = expandTabs(part)
			lines[len(lines)-1] = append(lines[len(lines)-1], span)
		}
	}
	// Lexers may drop or add a trailing newline; pin the count to the buffer.
	want := LineCount(text)
	for len(lines) < want {
		lines = append(lines, Line{})
	}
	return lines[:want], nil
}

// LineCount counts lines the way the editing surface does: an empty buffer
// is one line.
func LineCount(text string) int {
	return strings.Count(text, "\n") + 1
}

// DetectLanguageLocally guesses a language slug from the content alone.
func DetectLanguageLocally(text string) string {
	if strings.TrimSpace(text) == "" {
		return PlainText
	}
	lx := lexers.Analyse(text)
	if lx == nil {
		return PlainText
	}
	name := strings.ToLower(lx.Config().Name)
	if name == "plaintext" {
		return PlainText
	}
	return name
}

// Highlighter memoises the last highlight so the text layer is recomputed
// only when content, grammar or theme change.
type Highlighter struct {
	mu    sync.Mutex
	key   highlightKey
	lines []Line
	valid bool

	// Misses counts recomputations.
	Misses int
}

type highlightKey struct {
	text, grammar, theme string
}

// Lines returns the highlighted lines for text.
func (h *Highlighter) Lines(text, language, theme string) ([]Line, error) {
	key := highlightKey{text: text, grammar: ResolveGrammar(language), theme: theme}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.valid && h.key == key {
		return h.lines, nil
	}
	lines, err := Highlight(text, language, theme)
	if err != nil {
		return nil, err
	}
	h.key, h.lines, h.valid = key, lines, true
	h.Misses++
	return lines, nil
}

func colourRGBA(c chroma.Colour) color.RGBA {
	if !c.IsSet() {
		return rgb(0xf8f8f2)
	}
	return color.RGBA{c.Red(), c.Green(), c.Blue(), 0xFF}
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
