package codeshot

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ---- Configuration model ----

// Config describes every visual and export parameter of a frame. A Config
// obtained from DefaultConfig, Merge or Normalize is always fully populated.
type Config struct {
	Theme              string  `yaml:"theme" json:"theme"`
	Background         string  `yaml:"background" json:"background"`
	Language           string  `yaml:"language" json:"language"`
	FontSize           float64 `yaml:"fontSize" json:"fontSize"`
	Padding            float64 `yaml:"padding" json:"padding"`
	FrameScale         float64 `yaml:"frameScale" json:"frameScale"`
	ExportScale        int     `yaml:"exportScale" json:"exportScale"`
	PDFQuality         int     `yaml:"pdfQuality" json:"pdfQuality"`
	JPGQuality         int     `yaml:"jpgQuality" json:"jpgQuality"`
	Opacity            int     `yaml:"opacity" json:"opacity"`
	ShowLineNumbers    bool    `yaml:"showLineNumbers" json:"showLineNumbers"`
	ShowWindowControls bool    `yaml:"showWindowControls" json:"showWindowControls"`
	ShowWindowButtons  bool    `yaml:"showWindowButtons" json:"showWindowButtons"`
	ShowShadow         bool    `yaml:"showShadow" json:"showShadow"`
	Rounded            bool    `yaml:"rounded" json:"rounded"`
	CompactMode        bool    `yaml:"compactMode" json:"compactMode"`
}

// Patch carries an optional value per Config field. Nil fields are left
// untouched by Merge.
type Patch struct {
	Theme              *string  `yaml:"theme,omitempty" json:"theme,omitempty"`
	Background         *string  `yaml:"background,omitempty" json:"background,omitempty"`
	Language           *string  `yaml:"language,omitempty" json:"language,omitempty"`
	FontSize           *float64 `yaml:"fontSize,omitempty" json:"fontSize,omitempty"`
	Padding            *float64 `yaml:"padding,omitempty" json:"padding,omitempty"`
	FrameScale         *float64 `yaml:"frameScale,omitempty" json:"frameScale,omitempty"`
	ExportScale        *int     `yaml:"exportScale,omitempty" json:"exportScale,omitempty"`
	PDFQuality         *int     `yaml:"pdfQuality,omitempty" json:"pdfQuality,omitempty"`
	JPGQuality         *int     `yaml:"jpgQuality,omitempty" json:"jpgQuality,omitempty"`
	Opacity            *int     `yaml:"opacity,omitempty" json:"opacity,omitempty"`
	ShowLineNumbers    *bool    `yaml:"showLineNumbers,omitempty" json:"showLineNumbers,omitempty"`
	ShowWindowControls *bool    `yaml:"showWindowControls,omitempty" json:"showWindowControls,omitempty"`
	ShowWindowButtons  *bool    `yaml:"showWindowButtons,omitempty" json:"showWindowButtons,omitempty"`
	ShowShadow         *bool    `yaml:"showShadow,omitempty" json:"showShadow,omitempty"`
	Rounded            *bool    `yaml:"rounded,omitempty" json:"rounded,omitempty"`
	CompactMode        *bool    `yaml:"compactMode,omitempty" json:"compactMode,omitempty"`
}

// Range limits.
const (
	MinFontSize   = 8
	MaxFontSize   = 60
	MinPadding    = 0
	MaxPadding    = 400
	MinFrameScale = 0.5
	MaxFrameScale = 2.5
	MinQuality    = 0
	MaxQuality    = 100

	PlainText = "plain text"
)

// SampleBuffer is shown when a session starts without input, and when a
// share link cannot be decoded.
const SampleBuffer = `/**
 * codeshot sample
 */
function exportFrame() {
  const quality = "Ultra HD";
  const status = "Ready for Export";

  return ` + "`Status: ${status} at ${quality} fidelity`" + `;
}`

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnknownKey    = errors.New("unknown configuration key")
)

// ExportScales lists the allowed pixel-density multipliers.
var ExportScales = []int{1, 2, 3, 4}

// Theme is a named code surface style backed by a chroma style.
type Theme struct {
	Name   string
	Value  string
	Chroma string
}

// Themes is the fixed theme list.
var Themes = []Theme{
	{Name: "Dracula", Value: "dracula", Chroma: "dracula"},
	{Name: "Nord", Value: "nord", Chroma: "nord"},
	{Name: "Monokai", Value: "monokai", Chroma: "monokai"},
	{Name: "One Dark", Value: "one-dark", Chroma: "onedark"},
	{Name: "Night Owl", Value: "night-owl", Chroma: "tokyonight-night"},
	{Name: "Vibrant", Value: "vibrant", Chroma: "catppuccin-mocha"},
}

// Languages is the picker list. Any other value is accepted as free text.
var Languages = []string{
	"javascript", "typescript", "python", "css", "html", "rust", "go", "json",
	"markdown", "cpp", "csharp", "java", "php", "bash", PlainText,
}

// DefaultConfig returns the configuration a fresh session starts with.
func DefaultConfig() Config {
	return Config{
		Theme:              "dracula",
		Background:         Backgrounds[0].Token,
		Language:           "javascript",
		FontSize:           16,
		Padding:            64,
		FrameScale:         1.1,
		ExportScale:        2,
		PDFQuality:         95,
		JPGQuality:         80,
		Opacity:            100,
		ShowLineNumbers:    true,
		ShowWindowControls: true,
		ShowWindowButtons:  true,
		ShowShadow:         true,
		Rounded:            true,
		CompactMode:        true,
	}
}

// ThemeByValue looks up a theme by its config value.
func ThemeByValue(v string) (Theme, bool) {
	for _, t := range Themes {
		if t.Value == strings.ToLower(strings.TrimSpace(v)) {
			return t, true
		}
	}
	return Theme{}, false
}

// Validate reports every field outside its allowed range.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}
	_, themeOK := ThemeByValue(c.Theme)
	check(themeOK, "unknown theme %q", c.Theme)
	_, bgOK := BackgroundByToken(c.Background)
	check(bgOK, "unknown background %q", c.Background)
	check(strings.TrimSpace(c.Language) != "", "language must not be empty")
	check(inRange(c.FontSize, MinFontSize, MaxFontSize), "fontSize %v outside [%d, %d]", c.FontSize, MinFontSize, MaxFontSize)
	check(inRange(c.Padding, MinPadding, MaxPadding), "padding %v outside [%d, %d]", c.Padding, MinPadding, MaxPadding)
	check(inRange(c.FrameScale, MinFrameScale, MaxFrameScale), "frameScale %v outside [%v, %v]", c.FrameScale, MinFrameScale, MaxFrameScale)
	check(validExportScale(c.ExportScale), "exportScale %d not one of %v", c.ExportScale, ExportScales)
	check(c.PDFQuality >= MinQuality && c.PDFQuality <= MaxQuality, "pdfQuality %d outside [0, 100]", c.PDFQuality)
	check(c.JPGQuality >= MinQuality && c.JPGQuality <= MaxQuality, "jpgQuality %d outside [0, 100]", c.JPGQuality)
	check(c.Opacity >= 0 && c.Opacity <= 100, "opacity %d outside [0, 100]", c.Opacity)
	return errors.Join(errs...)
}

// Normalize clamps every field into its allowed range and replaces unknown
// tokens with defaults.
func (c Config) Normalize() Config {
	def := DefaultConfig()
	if t, ok := ThemeByValue(c.Theme); ok {
		c.Theme = t.Value
	} else {
		c.Theme = def.Theme
	}
	if b, ok := BackgroundByToken(c.Background); ok {
		c.Background = b.Token
	} else {
		c.Background = def.Background
	}
	c.Language = strings.ToLower(strings.TrimSpace(c.Language))
	if c.Language == "" {
		c.Language = PlainText
	}
	c.FontSize = clampFloat(c.FontSize, MinFontSize, MaxFontSize)
	c.Padding = clampFloat(c.Padding, MinPadding, MaxPadding)
	c.FrameScale = clampFloat(c.FrameScale, MinFrameScale, MaxFrameScale)
	c.ExportScale = nearestExportScale(c.ExportScale)
	c.PDFQuality = clampInt(c.PDFQuality, MinQuality, MaxQuality)
	c.JPGQuality = clampInt(c.JPGQuality, MinQuality, MaxQuality)
	c.Opacity = clampInt(c.Opacity, 0, 100)
	return c
}

// Merge returns c with every non-nil field of p applied.
func (c Config) Merge(p Patch) Config {
	if p.Theme != nil {
		c.Theme = *p.Theme
	}
	if p.Background != nil {
		c.Background = *p.Background
	}
	if p.Language != nil {
		c.Language = *p.Language
	}
	if p.FontSize != nil {
		c.FontSize = *p.FontSize
	}
	if p.Padding != nil {
		c.Padding = *p.Padding
	}
	if p.FrameScale != nil {
		c.FrameScale = *p.FrameScale
	}
	if p.ExportScale != nil {
		c.ExportScale = *p.ExportScale
	}
	if p.PDFQuality != nil {
		c.PDFQuality = *p.PDFQuality
	}
	if p.JPGQuality != nil {
		c.JPGQuality = *p.JPGQuality
	}
	if p.Opacity != nil {
		c.Opacity = *p.Opacity
	}
	if p.ShowLineNumbers != nil {
		c.ShowLineNumbers = *p.ShowLineNumbers
	}
	if p.ShowWindowControls != nil {
		c.ShowWindowControls = *p.ShowWindowControls
	}
	if p.ShowWindowButtons != nil {
		c.ShowWindowButtons = *p.ShowWindowButtons
	}
	if p.ShowShadow != nil {
		c.ShowShadow = *p.ShowShadow
	}
	if p.Rounded != nil {
		c.Rounded = *p.Rounded
	}
	if p.CompactMode != nil {
		c.CompactMode = *p.CompactMode
	}
	return c
}

// PatchOf returns a Patch that sets every field to the value in c.
func PatchOf(c Config) Patch {
	return Patch{
		Theme:              &c.Theme,
		Background:         &c.Background,
		Language:           &c.Language,
		FontSize:           &c.FontSize,
		Padding:            &c.Padding,
		FrameScale:         &c.FrameScale,
		ExportScale:        &c.ExportScale,
		PDFQuality:         &c.PDFQuality,
		JPGQuality:         &c.JPGQuality,
		Opacity:            &c.Opacity,
		ShowLineNumbers:    &c.ShowLineNumbers,
		ShowWindowControls: &c.ShowWindowControls,
		ShowWindowButtons:  &c.ShowWindowButtons,
		ShowShadow:         &c.ShowShadow,
		Rounded:            &c.Rounded,
		CompactMode:        &c.CompactMode,
	}
}

// Keys lists the flat document keys in document order.
func Keys() []string {
	return []string{
		"theme", "background", "language", "fontSize", "padding", "frameScale",
		"exportScale", "pdfQuality", "jpgQuality", "opacity",
		"showLineNumbers", "showWindowControls", "showWindowButtons",
		"showShadow", "rounded", "compactMode",
	}
}

// ParsePatch builds a single-key Patch from a string key/value pair. Keys
// match case-insensitively.
func ParsePatch(key, value string) (Patch, error) {
	var p Patch
	value = strings.TrimSpace(value)
	parseFloat := func() (*float64, error) {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return &f, nil
	}
	parseInt := func() (*int, error) {
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return &i, nil
	}
	parseBool := func() (*bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return &b, nil
	}

	var err error
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "theme":
		p.Theme = &value
	case "background":
		p.Background = &value
	case "language":
		p.Language = &value
	case "fontsize":
		p.FontSize, err = parseFloat()
	case "padding":
		p.Padding, err = parseFloat()
	case "framescale":
		p.FrameScale, err = parseFloat()
	case "exportscale":
		p.ExportScale, err = parseInt()
	case "pdfquality":
		p.PDFQuality, err = parseInt()
	case "jpgquality":
		p.JPGQuality, err = parseInt()
	case "opacity":
		p.Opacity, err = parseInt()
	case "showlinenumbers":
		p.ShowLineNumbers, err = parseBool()
	case "showwindowcontrols":
		p.ShowWindowControls, err = parseBool()
	case "showwindowbuttons":
		p.ShowWindowButtons, err = parseBool()
	case "showshadow":
		p.ShowShadow, err = parseBool()
	case "rounded":
		p.Rounded, err = parseBool()
	case "compactmode":
		p.CompactMode, err = parseBool()
	default:
		return Patch{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err != nil {
		return Patch{}, err
	}
	return p, nil
}

// Set applies a single string-keyed mutation and validates the result.
// Tokens are stored in their canonical lower-case form.
func (c Config) Set(key, value string) (Config, error) {
	p, err := ParsePatch(key, value)
	if err != nil {
		return c, err
	}
	return c.Apply(p)
}

// Apply merges p, validates the result and canonicalizes its tokens.
func (c Config) Apply(p Patch) (Config, error) {
	next := c.Merge(p)
	if err := next.Validate(); err != nil {
		return c, err
	}
	return next.Normalize(), nil
}

// Value returns the string form of the field named key.
func (c Config) Value(key string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "theme":
		return c.Theme, nil
	case "background":
		return c.Background, nil
	case "language":
		return c.Language, nil
	case "fontsize":
		return strconv.FormatFloat(c.FontSize, 'g', -1, 64), nil
	case "padding":
		return strconv.FormatFloat(c.Padding, 'g', -1, 64), nil
	case "framescale":
		return strconv.FormatFloat(c.FrameScale, 'g', -1, 64), nil
	case "exportscale":
		return strconv.Itoa(c.ExportScale), nil
	case "pdfquality":
		return strconv.Itoa(c.PDFQuality), nil
	case "jpgquality":
		return strconv.Itoa(c.JPGQuality), nil
	case "opacity":
		return strconv.Itoa(c.Opacity), nil
	case "showlinenumbers":
		return strconv.FormatBool(c.ShowLineNumbers), nil
	case "showwindowcontrols":
		return strconv.FormatBool(c.ShowWindowControls), nil
	case "showwindowbuttons":
		return strconv.FormatBool(c.ShowWindowButtons), nil
	case "showshadow":
		return strconv.FormatBool(c.ShowShadow), nil
	case "rounded":
		return strconv.FormatBool(c.Rounded), nil
	case "compactmode":
		return strconv.FormatBool(c.CompactMode), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func validExportScale(s int) bool {
	for _, v := range ExportScales {
		if v == s {
			return true
		}
	}
	return false
}

func nearestExportScale(s int) int {
	return clampInt(s, ExportScales[0], ExportScales[len(ExportScales)-1])
}
