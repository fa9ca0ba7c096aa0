package valueobjects

import "math"

// Range is a half-open [Start, End) frame interval.
// The last frame shown to the user is End - 1.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewRange creates a Range
func NewRange(start, end float64) Range {
	return Range{Start: start, End: end}
}

// IsZero reports whether the range is the (0,0) "undefined" range
func (r Range) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Last returns the last frame of the range as displayed
func (r Range) Last() float64 {
	return r.End - 1
}

// Duration returns End - Start
func (r Range) Duration() float64 {
	return r.End - r.Start
}

// Contains reports whether t lies in [Start, End)
func (r Range) Contains(t float64) bool {
	return t >= r.Start && t < r.End
}

// Overlaps reports whether the closed interval [lo, hi] touches the range
func (r Range) Overlaps(lo, hi float64) bool {
	if lo > hi {
		lo, hi = hi, lo
	}
	return r.Start <= hi && r.End >= lo
}

// Shift returns the range translated by dt
func (r Range) Shift(dt float64) Range {
	return Range{Start: r.Start + dt, End: r.End + dt}
}

// Equals checks if two ranges are equal
func (r Range) Equals(other Range) bool {
	return r.Start == other.Start && r.End == other.End
}

// RangeOf returns [min(times), max(times)). Fewer than two distinct times
// give the zero range.
func RangeOf(times []float64) Range {
	if len(times) == 0 {
		return Range{}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, t := range times {
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}
	if lo == hi {
		return Range{}
	}
	return Range{Start: lo, End: hi}
}
