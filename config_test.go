package codeshot

import (
	"errors"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if DefaultConfig().Normalize() != DefaultConfig() {
		t.Fatalf("normalizing defaults changed them")
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	c := DefaultConfig()
	c.FontSize = 7
	c.Padding = 401
	c.ExportScale = 5
	c.Theme = "solarized"
	err := c.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if n := len(err.(interface{ Unwrap() []error }).Unwrap()); n != 4 {
		t.Fatalf("expected 4 violations, got %d: %v", n, err)
	}
}

func TestNormalizeClamps(t *testing.T) {
	c := DefaultConfig()
	c.FontSize = 100
	c.FrameScale = 0.1
	c.ExportScale = 9
	c.Opacity = -5
	c.Background = "neon"
	c.Language = "  "
	n := c.Normalize()
	if n.FontSize != MaxFontSize || n.FrameScale != MinFrameScale || n.ExportScale != 4 || n.Opacity != 0 {
		t.Fatalf("unexpected clamp result %+v", n)
	}
	if n.Background != DefaultConfig().Background || n.Language != PlainText {
		t.Fatalf("unexpected token fallback %+v", n)
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("normalized config invalid: %v", err)
	}
}

func TestMergeAppliesOnlySetFields(t *testing.T) {
	size := 20.0
	theme := "nord"
	c := DefaultConfig().Merge(Patch{FontSize: &size, Theme: &theme})
	want := DefaultConfig()
	want.FontSize = 20
	want.Theme = "nord"
	if c != want {
		t.Fatalf("merge = %+v", c)
	}
	if DefaultConfig().Merge(PatchOf(c)) != c {
		t.Fatalf("PatchOf did not round-trip")
	}
}

func TestSetAndValue(t *testing.T) {
	c := DefaultConfig()
	for _, k := range Keys() {
		v, err := c.Value(k)
		if err != nil {
			t.Fatalf("value %s: %v", k, err)
		}
		next, err := c.Set(k, v)
		if err != nil {
			t.Fatalf("set %s=%s: %v", k, v, err)
		}
		if next != c {
			t.Fatalf("set %s=%s changed config", k, v)
		}
	}

	next, err := c.Set("FONTSIZE", "24")
	if err != nil || next.FontSize != 24 {
		t.Fatalf("case-insensitive set failed: %v", err)
	}
	if _, err := c.Set("fontSize", "61"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := c.Set("colour", "red"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
	if _, err := c.Set("rounded", "maybe"); err == nil {
		t.Fatalf("expected a parse error")
	}
}
