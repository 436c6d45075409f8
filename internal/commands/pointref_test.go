package commands

import (
	"testing"
)

func TestParsePoint(t *testing.T) {
	x, y, err := ParsePoint(" 100.5, 50 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x != 100.5 || y != 50 {
		t.Errorf("expected (100.5, 50), got (%v, %v)", x, y)
	}
}

func TestParsePoint_Empty(t *testing.T) {
	_, _, err := ParsePoint("  ")
	if err != ErrPointRequired {
		t.Errorf("expected ErrPointRequired, got %v", err)
	}
}

func TestParsePoint_Invalid(t *testing.T) {
	for _, in := range []string{"10", "a,b", "1,NaN", "Inf,2", "1;2"} {
		_, _, err := ParsePoint(in)
		if err == nil {
			t.Errorf("ParsePoint(%q): expected error", in)
		}
	}
}

func TestParsePixel(t *testing.T) {
	x, y, err := ParsePixel("12,7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x != 12 || y != 7 {
		t.Errorf("expected (12, 7), got (%d, %d)", x, y)
	}

	for _, in := range []string{"1.5,2", "-1,2"} {
		if _, _, err := ParsePixel(in); err == nil {
			t.Errorf("ParsePixel(%q): expected error", in)
		}
	}
}

func TestParseSize(t *testing.T) {
	w, h, err := ParseSize("400X200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 400 || h != 200 {
		t.Errorf("expected 400x200, got %vx%v", w, h)
	}

	for _, in := range []string{"400", "0x200", "400x-1", "axb"} {
		if _, _, err := ParseSize(in); err == nil {
			t.Errorf("ParseSize(%q): expected error", in)
		}
	}
}
