package codeshot

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// ---- Output formats ----

// Format is an export encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
)

// Formats lists every export format.
var Formats = []Format{FormatPNG, FormatJPEG, FormatPDF}

// ParseFormat accepts a format name or common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Ext is the file extension, without the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// Quality is the encoding quality cfg selects for f.
func (f Format) Quality(cfg Config) int {
	switch f {
	case FormatPDF:
		return cfg.PDFQuality
	case FormatJPEG:
		return cfg.JPGQuality
	}
	return MaxQuality
}

// ---- Size estimator ----

const (
	estimateBaseMB    = 0.2
	estimatePerLineMB = 0.01
	estimatePerCharMB = 0.00005
	estimateFontExp   = 0.5
	estimateFloorMB   = 0.05
	bytesPerMB        = 1 << 20
)

// EstimateInput carries everything the estimate depends on.
type EstimateInput struct {
	Lines       int
	Chars       int
	ExportScale int
	FrameScale  float64
	FontSize    float64
	Padding     float64
	Quality     int
}

// EstimateInputFor derives an EstimateInput for buffer exported as f.
func EstimateInputFor(buffer string, cfg Config, f Format) EstimateInput {
	return EstimateInput{
		Lines:       LineCount(buffer),
		Chars:       utf8.RuneCountInString(buffer),
		ExportScale: cfg.ExportScale,
		FrameScale:  cfg.FrameScale,
		FontSize:    cfg.FontSize,
		Padding:     cfg.Padding,
		Quality:     f.Quality(cfg),
	}
}

// Estimate returns an approximate export size in megabytes. It is
// non-decreasing in every input and never below a small positive floor.
func Estimate(in EstimateInput) float64 {
	lines := float64(max(in.Lines, 0))
	chars := float64(max(in.Chars, 0))
	scale := float64(max(in.ExportScale, 1))
	frame := math.Max(in.FrameScale, MinFrameScale)
	font := math.Max(in.FontSize, MinFontSize) / 16
	pad := math.Max(in.Padding, 0)
	quality := float64(clampInt(in.Quality, MinQuality, MaxQuality))

	mb := (estimateBaseMB + lines*estimatePerLineMB + chars*estimatePerCharMB) *
		scale * scale *
		frame * frame *
		(pad/64 + 0.5) *
		math.Pow(font, estimateFontExp) *
		quality / 100
	if math.IsNaN(mb) || mb < estimateFloorMB {
		return estimateFloorMB
	}
	return mb
}

// EstimateBytes is Estimate in bytes.
func EstimateBytes(in EstimateInput) uint64 {
	return uint64(math.Round(Estimate(in) * bytesPerMB))
}

// FormatEstimate renders an estimate for display, e.g. "1.2 MiB".
func FormatEstimate(in EstimateInput) string {
	return humanize.IBytes(EstimateBytes(in))
}
