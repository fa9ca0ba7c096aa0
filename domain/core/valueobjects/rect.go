package valueobjects

import "math"

// Rect is an area of the dope sheet: time along X, display row index along Y.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// NewRect builds a normalized rect from two corners
func NewRect(x1, y1, x2, y2 float64) Rect {
	return Rect{
		Left:   math.Min(x1, x2),
		Right:  math.Max(x1, x2),
		Top:    math.Min(y1, y2),
		Bottom: math.Max(y1, y2),
	}
}

// Contains reports whether (x, y) lies inside the rect, borders included
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Width returns Right - Left
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns Bottom - Top
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Union returns the smallest rect containing r and o
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   math.Min(r.Left, o.Left),
		Top:    math.Min(r.Top, o.Top),
		Right:  math.Max(r.Right, o.Right),
		Bottom: math.Max(r.Bottom, o.Bottom),
	}
}
