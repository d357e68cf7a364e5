package tui

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/arran4/codeshot"
)

type fieldKind int

const (
	choiceField fieldKind = iota
	numberField
	toggleField
)

// field is one row of the settings panel, addressed by its configuration key.
type field struct {
	key   string
	label string
	kind  fieldKind

	choices []string

	step, lo, hi float64
	unit         string
}

func themeValues() []string {
	out := make([]string, len(codeshot.Themes))
	for i, t := range codeshot.Themes {
		out[i] = t.Value
	}
	return out
}

func backgroundTokens() []string {
	out := make([]string, len(codeshot.Backgrounds))
	for i, b := range codeshot.Backgrounds {
		out[i] = b.Token
	}
	return out
}

func scaleChoices() []string {
	out := make([]string, len(codeshot.ExportScales))
	for i, s := range codeshot.ExportScales {
		out[i] = strconv.Itoa(s)
	}
	return out
}

var fields = []field{
	{key: "language", label: "Language", kind: choiceField, choices: codeshot.Languages},
	{key: "theme", label: "Theme", kind: choiceField, choices: themeValues()},
	{key: "background", label: "Background", kind: choiceField, choices: backgroundTokens()},
	{key: "fontSize", label: "Font size", kind: numberField, step: 1, lo: codeshot.MinFontSize, hi: codeshot.MaxFontSize, unit: "px"},
	{key: "padding", label: "Padding", kind: numberField, step: 8, lo: codeshot.MinPadding, hi: codeshot.MaxPadding, unit: "px"},
	{key: "frameScale", label: "Frame scale", kind: numberField, step: 0.05, lo: codeshot.MinFrameScale, hi: codeshot.MaxFrameScale, unit: "x"},
	{key: "exportScale", label: "Export scale", kind: choiceField, choices: scaleChoices()},
	{key: "jpgQuality", label: "JPG quality", kind: numberField, step: 5, lo: codeshot.MinQuality, hi: codeshot.MaxQuality, unit: "%"},
	{key: "pdfQuality", label: "PDF quality", kind: numberField, step: 5, lo: codeshot.MinQuality, hi: codeshot.MaxQuality, unit: "%"},
	{key: "opacity", label: "Opacity", kind: numberField, step: 5, lo: 0, hi: 100, unit: "%"},
	{key: "showLineNumbers", label: "Line numbers", kind: toggleField},
	{key: "showWindowControls", label: "Window chrome", kind: toggleField},
	{key: "showWindowButtons", label: "Window buttons", kind: toggleField},
	{key: "showShadow", label: "Shadow", kind: toggleField},
	{key: "rounded", label: "Rounded corners", kind: toggleField},
	{key: "compactMode", label: "Compact", kind: toggleField},
}

// adjust returns the value after moving dir steps from cur. Choices wrap,
// numbers stop at their limits and toggles flip whatever the direction.
func (f field) adjust(cur string, dir int) string {
	switch f.kind {
	case choiceField:
		i := slices.Index(f.choices, cur)
		if i < 0 {
			if dir < 0 {
				return f.choices[len(f.choices)-1]
			}
			return f.choices[0]
		}
		n := len(f.choices)
		return f.choices[((i+dir)%n+n)%n]
	case numberField:
		v, err := strconv.ParseFloat(cur, 64)
		if err != nil {
			v = f.lo
		}
		v = math.Max(f.lo, math.Min(f.hi, v+float64(dir)*f.step))
		return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	case toggleField:
		return strconv.FormatBool(cur != "true")
	}
	return cur
}

// display is the value as the panel shows it.
func (f field) display(cur string) string {
	switch {
	case f.key == "theme":
		if t, ok := codeshot.ThemeByValue(cur); ok {
			return t.Name
		}
	case f.kind == toggleField:
		if cur == "true" {
			return "on"
		}
		return "off"
	case f.key == "exportScale":
		return cur + "x"
	}
	return cur + f.unit
}

func (m Model) panelView() string {
	cfg := m.snap.Config
	width := 0
	for _, f := range fields {
		width = max(width, len(f.label))
	}
	var b strings.Builder
	for i, f := range fields {
		v, err := cfg.Value(f.key)
		if err != nil {
			v = "?"
		}
		row := fmt.Sprintf(" %-*s  %s ", width, f.label, f.display(v))
		if i == m.cursor {
			row = selectedStyle.Render("›" + row)
		} else {
			row = " " + row
		}
		b.WriteString(row)
		if i < len(fields)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
