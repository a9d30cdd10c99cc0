// Package scale maps data values to pixel coordinates.
//
// Two scales cover the chart: [Linear] maps numeric values (elapsed seconds)
// and [Time] maps instants (calendar years). Both are immutable once built,
// so a scale can be shared freely between the axis and mark renderers.
//
// [Build] derives both scales for a record set. The x domain is padded by one
// year on each side of the data extent; the y domain is the caller's fixed
// visible time window, mapped so that smaller times sit higher on screen.
package scale

import "math"

// Linear maps a continuous numeric domain onto a pixel range.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
	clamp  bool
}

// NewLinear creates a linear scale from domain [d0, d1] to range [r0, r1].
// A degenerate domain (d0 == d1) maps every value to the middle of the range.
func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Clamped returns a copy of s whose output never leaves the range.
func (s Linear) Clamped() Linear {
	s.clamp = true
	return s
}

// Domain returns the input interval.
func (s Linear) Domain() (float64, float64) { return s.d0, s.d1 }

// Range returns the output interval.
func (s Linear) Range() (float64, float64) { return s.r0, s.r1 }

// Map projects v into the range.
func (s Linear) Map(v float64) float64 {
	if s.d1 == s.d0 {
		return (s.r0 + s.r1) / 2
	}
	t := (v - s.d0) / (s.d1 - s.d0)
	if s.clamp {
		t = math.Max(0, math.Min(1, t))
	}
	return s.r0 + t*(s.r1-s.r0)
}

// Invert maps a pixel back into the domain.
func (s Linear) Invert(px float64) float64 {
	if s.r1 == s.r0 {
		return s.d0
	}
	return s.d0 + (px-s.r0)/(s.r1-s.r0)*(s.d1-s.d0)
}

// Contains reports whether v lies inside the domain (inclusive).
func (s Linear) Contains(v float64) bool {
	lo, hi := math.Min(s.d0, s.d1), math.Max(s.d0, s.d1)
	return v >= lo && v <= hi
}

// Ticks returns roughly count evenly spaced round values inside the domain.
func (s Linear) Ticks(count int) []float64 {
	return Ticks(s.d0, s.d1, count)
}
