// Package canvas converts pointer events on a displayed canvas into
// coordinates in the image's native pixel space.
package canvas

import (
	"math"

	"astroctl/internal/service"
)

// Button identifies the pointer button that fired an event.
type Button int

const (
	// Primary is the main (usually left) button.
	Primary Button = iota
	// Auxiliary is the middle button.
	Auxiliary
	// Secondary is the context-menu (usually right) button.
	Secondary
)

// Rect is an element's bounding rectangle in viewport coordinates.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Element is a canvas as laid out on screen.
type Element interface {
	// BoundingRect returns the current on-screen rectangle.
	// ok is false when the element has not been laid out.
	BoundingRect() (r Rect, ok bool)

	// IntrinsicSize returns the bitmap resolution.
	IntrinsicSize() (width, height int)
}

// Pointer is a pointer event in viewport coordinates.
type Pointer struct {
	ClientX float64
	ClientY float64
	Button  Button
}

// Point is a position in intrinsic bitmap pixels.
type Point struct {
	X int
	Y int
}

// Map converts p into el's intrinsic pixel space.
// The bounding rectangle is read on every call; layout can change between events.
// Returns ok=false when the element has no usable on-screen size.
func Map(p Pointer, el Element) (Point, bool) {
	if el == nil {
		return Point{}, false
	}
	rect, ok := el.BoundingRect()
	if !ok || !(rect.Width > 0) || !(rect.Height > 0) {
		return Point{}, false
	}
	if !finite(rect.Left, rect.Top, rect.Width, rect.Height, p.ClientX, p.ClientY) {
		return Point{}, false
	}

	w, h := el.IntrinsicSize()
	x := (p.ClientX - rect.Left) * (float64(w) / rect.Width)
	y := (p.ClientY - rect.Top) * (float64(h) / rect.Height)

	return Point{X: int(math.Round(x)), Y: int(math.Round(y))}, true
}

// Annotate maps p and derives the annotation polarity from its button.
func Annotate(p Pointer, el Element) (service.Annotation, bool) {
	pt, ok := Map(p, el)
	if !ok {
		return service.Annotation{}, false
	}
	return service.Annotation{X: pt.X, Y: pt.Y, Reinforcing: p.Button == Primary}, true
}

// Static is an Element with a fixed layout.
type Static struct {
	Rect   Rect
	Width  int
	Height int
}

// BoundingRect implements Element.
func (s Static) BoundingRect() (Rect, bool) {
	return s.Rect, s.Rect.Width > 0 && s.Rect.Height > 0
}

// IntrinsicSize implements Element.
func (s Static) IntrinsicSize() (int, int) {
	return s.Width, s.Height
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
