package scale

import "math"

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// Step returns the "nice" tick spacing (1, 2 or 5 times a power of ten)
// closest to dividing [start, stop] into count intervals.
func Step(start, stop float64, count int) float64 {
	if count <= 0 || start == stop {
		return 0
	}
	raw := math.Abs(stop-start) / float64(count)
	power := math.Floor(math.Log10(raw))
	unit := math.Pow(10, power)
	switch err := raw / unit; {
	case err >= e10:
		unit *= 10
	case err >= e5:
		unit *= 5
	case err >= e2:
		unit *= 2
	}
	return unit
}

// Ticks returns the multiples of [Step] that fall inside [start, stop].
// The result is ascending when start < stop and descending otherwise,
// matching the order of the domain.
func Ticks(start, stop float64, count int) []float64 {
	if start == stop {
		if count > 0 {
			return []float64{start}
		}
		return nil
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	step := Step(start, stop, count)
	if step == 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return nil
	}

	// Work in integer multiples of the step to avoid drift.
	i0 := math.Ceil(start / step)
	i1 := math.Floor(stop / step)
	if i1 < i0 {
		return nil
	}
	n := int(i1-i0) + 1
	ticks := make([]float64, n)
	for i := range n {
		ticks[i] = round((i0 + float64(i)) * step)
	}
	if reverse {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			ticks[i], ticks[j] = ticks[j], ticks[i]
		}
	}
	return ticks
}

// round trims floating point noise such as 0.30000000000000004.
func round(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}
