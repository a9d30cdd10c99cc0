package scale

import (
	"math"
	"time"
)

// Time maps instants onto a pixel range, linearly in wall-clock time.
type Time struct {
	lin    Linear
	t0, t1 time.Time
}

// NewTime creates a time scale from domain [t0, t1] to range [r0, r1].
func NewTime(t0, t1 time.Time, r0, r1 float64) Time {
	return Time{
		lin: NewLinear(unix(t0), unix(t1), r0, r1),
		t0:  t0,
		t1:  t1,
	}
}

// Domain returns the input interval.
func (s Time) Domain() (time.Time, time.Time) { return s.t0, s.t1 }

// Range returns the output interval.
func (s Time) Range() (float64, float64) { return s.lin.Range() }

// Map projects t into the range.
func (s Time) Map(t time.Time) float64 { return s.lin.Map(unix(t)) }

// MapYear projects January 1st of year into the range.
func (s Time) MapYear(year int) float64 {
	return s.Map(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
}

// Invert maps a pixel back to an instant.
func (s Time) Invert(px float64) time.Time {
	sec := s.lin.Invert(px)
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

// Ticks returns January 1st of round years inside the domain.
//
// Tick spacing is a whole number of years chosen by [Step]; the chart plots
// yearly observations so sub-year ticks are never produced.
func (s Time) Ticks(count int) []time.Time {
	first, last := s.t0, s.t1
	if last.Before(first) {
		first, last = last, first
	}
	y0 := first.Year()
	if !first.Equal(time.Date(y0, time.January, 1, 0, 0, 0, 0, first.Location())) {
		y0++
	}
	y1 := last.Year()
	if y1 < y0 {
		return nil
	}

	step := int(math.Max(1, math.Round(Step(float64(y0), float64(y1), count))))
	start := y0
	if r := start % step; r != 0 {
		start += step - r
	}
	var ticks []time.Time
	for y := start; y <= y1; y += step {
		ticks = append(ticks, time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC))
	}
	return ticks
}

func unix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
