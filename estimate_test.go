package codeshot

import (
	"strings"
	"testing"
)

func TestEstimateFloor(t *testing.T) {
	if got := Estimate(EstimateInput{}); got != estimateFloorMB {
		t.Fatalf("zero input estimate %v, want floor %v", got, estimateFloorMB)
	}
	for _, f := range Formats {
		if got := Estimate(EstimateInputFor("", DefaultConfig(), f)); got < estimateFloorMB {
			t.Fatalf("%s: empty buffer estimate %v below floor", f, got)
		}
	}
	cfg := DefaultConfig()
	cfg.JPGQuality = 0
	if got := Estimate(EstimateInputFor("", cfg, FormatJPEG)); got != estimateFloorMB {
		t.Fatalf("zero quality estimate %v, want floor", got)
	}
}

func TestEstimateMonotonic(t *testing.T) {
	base := EstimateInputFor(strings.Repeat("fmt.Println(x)\n", 20), DefaultConfig(), FormatPNG)
	b := Estimate(base)

	cases := []struct {
		name string
		mod  func(*EstimateInput)
	}{
		{"exportScale", func(in *EstimateInput) { in.ExportScale = 4 }},
		{"padding", func(in *EstimateInput) { in.Padding = 200 }},
		{"fontSize", func(in *EstimateInput) { in.FontSize = 40 }},
		{"frameScale", func(in *EstimateInput) { in.FrameScale = 2 }},
		{"lines", func(in *EstimateInput) { in.Lines += 100 }},
		{"chars", func(in *EstimateInput) { in.Chars += 5000 }},
	}
	for _, tc := range cases {
		in := base
		tc.mod(&in)
		if got := Estimate(in); got <= b {
			t.Fatalf("%s: raising input gave %v, base %v", tc.name, got, b)
		}
	}

	low := base
	low.Quality = 40
	if Estimate(low) >= b {
		t.Fatalf("lower quality should not estimate larger")
	}

	one, two := base, base
	one.ExportScale, two.ExportScale = 1, 2
	if Estimate(two) <= Estimate(one)*3 {
		t.Fatalf("export scale should grow quadratically: %v vs %v", Estimate(two), Estimate(one))
	}
}

func TestFormatEstimate(t *testing.T) {
	s := FormatEstimate(EstimateInputFor("x", DefaultConfig(), FormatPNG))
	if !strings.HasSuffix(s, "iB") {
		t.Fatalf("unexpected display %q", s)
	}
	if EstimateBytes(EstimateInput{}) == 0 {
		t.Fatalf("bytes estimate must stay positive")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"png": FormatPNG, ".JPG": FormatJPEG, "jpeg": FormatJPEG, "pdf": FormatPDF} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatalf("expected an error for gif")
	}
	if FormatJPEG.Ext() != "jpg" || FormatPDF.Ext() != "pdf" {
		t.Fatalf("unexpected extensions")
	}
}
