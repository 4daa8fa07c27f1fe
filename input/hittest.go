package input

import "math"

// Rect is an axis-aligned rectangle in screen coordinates, y growing down.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether (x, y) lies inside r. The right and bottom edges
// are exclusive so adjacent keys never both match.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// KeyRect is the on-screen rectangle of one key.
type KeyRect struct {
	ID int
	Rect
}

// RectSource is implemented by whatever draws the keyboard. KeyRects returns
// the rectangles in paint order, so later entries are drawn on top.
type RectSource interface {
	KeyRects() []KeyRect
}

// Hit is a key under the pointer.
type Hit struct {
	ID       int
	Velocity float64 // 0 at the key's top edge, 1 at its bottom
}

// HitTester maps screen coordinates to keys through a cache of key rectangles.
type HitTester struct {
	src   RectSource
	rects []KeyRect
}

// NewHitTester creates a tester and fills its cache from src.
func NewHitTester(src RectSource) *HitTester {
	h := &HitTester{src: src}
	h.Recalculate()
	return h
}

// Recalculate refreshes the rect cache. Call it whenever the drawn geometry
// changes (range, division, spacing or viewport size).
func (h *HitTester) Recalculate() {
	if h.src == nil {
		h.rects = nil
		return
	}
	rs := h.src.KeyRects()
	h.rects = make([]KeyRect, len(rs))
	copy(h.rects, rs)
}

// KeyAt returns the topmost key containing (x, y).
func (h *HitTester) KeyAt(x, y float64) (Hit, bool) {
	for i := len(h.rects) - 1; i >= 0; i-- {
		r := h.rects[i]
		if !r.Contains(x, y) {
			continue
		}
		v := (y - r.Y) / r.H
		return Hit{ID: r.ID, Velocity: math.Max(0, math.Min(1, v))}, true
	}
	return Hit{}, false
}

// Len returns the number of cached rectangles.
func (h *HitTester) Len() int {
	return len(h.rects)
}
