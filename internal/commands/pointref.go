package commands

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrPointRequired indicates no point was provided.
var ErrPointRequired = errors.New("point required")

// ParsePoint parses "X,Y". Fractional values are accepted so that display
// coordinates can carry sub-pixel positions.
func ParsePoint(s string) (x, y float64, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, ErrPointRequired
	}
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid point: %s", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil || !finite(x) || !finite(y) {
		return 0, 0, fmt.Errorf("invalid point: %s", s)
	}
	return x, y, nil
}

// ParsePixel parses "X,Y" as whole, non-negative image pixels.
func ParsePixel(s string) (x, y int, err error) {
	fx, fy, err := ParsePoint(s)
	if err != nil {
		return 0, 0, err
	}
	if fx < 0 || fy < 0 || fx != math.Trunc(fx) || fy != math.Trunc(fy) {
		return 0, 0, fmt.Errorf("invalid pixel: %s", strings.TrimSpace(s))
	}
	return int(fx), int(fy), nil
}

// ParseSize parses "WxH" with both dimensions positive.
func ParseSize(s string) (w, h float64, err error) {
	s = strings.TrimSpace(s)
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size: %s", s)
	}
	w, errW := strconv.ParseFloat(ws, 64)
	h, errH := strconv.ParseFloat(hs, 64)
	if errW != nil || errH != nil || !finite(w) || !finite(h) || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size: %s", s)
	}
	return w, h, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
