package canvas_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astroctl/internal/canvas"
)

// layout is an Element whose rectangle can move between events.
type layout struct {
	rects []canvas.Rect
	calls int
	w, h  int
}

func (l *layout) BoundingRect() (canvas.Rect, bool) {
	r := l.rects[l.calls%len(l.rects)]
	l.calls++
	return r, true
}

func (l *layout) IntrinsicSize() (int, int) { return l.w, l.h }

func TestMap_ScalesToIntrinsicResolution(t *testing.T) {
	el := canvas.Static{Rect: canvas.Rect{Width: 400, Height: 200}, Width: 800, Height: 400}

	pt, ok := canvas.Map(canvas.Pointer{ClientX: 100, ClientY: 50}, el)
	require.True(t, ok)
	assert.Equal(t, canvas.Point{X: 200, Y: 100}, pt)
}

func TestMap_SubtractsRectOrigin(t *testing.T) {
	el := canvas.Static{Rect: canvas.Rect{Left: 30, Top: 70, Width: 400, Height: 200}, Width: 800, Height: 400}

	pt, ok := canvas.Map(canvas.Pointer{ClientX: 130, ClientY: 120}, el)
	require.True(t, ok)
	assert.Equal(t, canvas.Point{X: 200, Y: 100}, pt)
}

func TestMap_NonUniformStretch(t *testing.T) {
	el := canvas.Static{Rect: canvas.Rect{Width: 100, Height: 400}, Width: 400, Height: 400}

	pt, ok := canvas.Map(canvas.Pointer{ClientX: 10, ClientY: 10}, el)
	require.True(t, ok)
	assert.Equal(t, canvas.Point{X: 40, Y: 10}, pt)
}

func TestMap_RoundsToNearest(t *testing.T) {
	el := canvas.Static{Rect: canvas.Rect{Width: 300, Height: 300}, Width: 100, Height: 100}

	pt, ok := canvas.Map(canvas.Pointer{ClientX: 4, ClientY: 5}, el)
	require.True(t, ok)
	// 4/3 = 1.33 -> 1, 5/3 = 1.67 -> 2
	assert.Equal(t, canvas.Point{X: 1, Y: 2}, pt)
}

func TestMap_ResolutionNormalized(t *testing.T) {
	small := canvas.Static{Rect: canvas.Rect{Width: 400, Height: 200}, Width: 800, Height: 400}
	wide := canvas.Static{Rect: canvas.Rect{Width: 800, Height: 200}, Width: 800, Height: 400}

	// Same relative position (25%, 25%) on both layouts.
	a, ok := canvas.Map(canvas.Pointer{ClientX: 100, ClientY: 50}, small)
	require.True(t, ok)
	b, ok := canvas.Map(canvas.Pointer{ClientX: 200, ClientY: 50}, wide)
	require.True(t, ok)

	assert.Equal(t, a, b)
}

func TestMap_StaysInsideIntrinsicBounds(t *testing.T) {
	const W, H = 801, 399
	el := canvas.Static{Rect: canvas.Rect{Left: 12.5, Top: 7.25, Width: 333, Height: 127}, Width: W, Height: H}

	for fx := 0.0; fx <= 1.0; fx += 0.05 {
		for fy := 0.0; fy <= 1.0; fy += 0.05 {
			p := canvas.Pointer{
				ClientX: el.Rect.Left + fx*el.Rect.Width,
				ClientY: el.Rect.Top + fy*el.Rect.Height,
			}
			pt, ok := canvas.Map(p, el)
			require.True(t, ok)
			assert.GreaterOrEqual(t, pt.X, 0)
			assert.LessOrEqual(t, pt.X, W)
			assert.GreaterOrEqual(t, pt.Y, 0)
			assert.LessOrEqual(t, pt.Y, H)
		}
	}
}

func TestMap_ReadsRectOnEveryEvent(t *testing.T) {
	el := &layout{
		rects: []canvas.Rect{
			{Width: 400, Height: 200},
			{Top: -100, Width: 400, Height: 200}, // scrolled by 100px
		},
		w: 800, h: 400,
	}

	first, ok := canvas.Map(canvas.Pointer{ClientX: 100, ClientY: 50}, el)
	require.True(t, ok)
	second, ok := canvas.Map(canvas.Pointer{ClientX: 100, ClientY: 50}, el)
	require.True(t, ok)

	assert.Equal(t, canvas.Point{X: 200, Y: 100}, first)
	assert.Equal(t, canvas.Point{X: 200, Y: 300}, second)
	assert.Equal(t, 2, el.calls)
}

func TestMap_ZeroSizeIsNoop(t *testing.T) {
	tests := []struct {
		name string
		el   canvas.Element
		p    canvas.Pointer
	}{
		{"nil element", nil, canvas.Pointer{}},
		{"zero width", canvas.Static{Rect: canvas.Rect{Height: 10}, Width: 10, Height: 10}, canvas.Pointer{}},
		{"zero height", canvas.Static{Rect: canvas.Rect{Width: 10}, Width: 10, Height: 10}, canvas.Pointer{}},
		{"negative size", &layout{rects: []canvas.Rect{{Width: -5, Height: 10}}, w: 10, h: 10}, canvas.Pointer{}},
		{"nan pointer", canvas.Static{Rect: canvas.Rect{Width: 10, Height: 10}, Width: 10, Height: 10}, canvas.Pointer{ClientX: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := canvas.Map(tt.p, tt.el)
			assert.False(t, ok)
		})
	}
}

func TestAnnotate_Polarity(t *testing.T) {
	el := canvas.Static{Rect: canvas.Rect{Width: 10, Height: 10}, Width: 10, Height: 10}

	a, ok := canvas.Annotate(canvas.Pointer{ClientX: 3, ClientY: 4, Button: canvas.Primary}, el)
	require.True(t, ok)
	assert.True(t, a.Reinforcing)
	assert.Equal(t, 3, a.X)
	assert.Equal(t, 4, a.Y)

	a, ok = canvas.Annotate(canvas.Pointer{ClientX: 3, ClientY: 4, Button: canvas.Secondary}, el)
	require.True(t, ok)
	assert.False(t, a.Reinforcing)
}
