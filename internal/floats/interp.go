package floats

import (
	"math"
	"sort"
)

// ForwardFill replaces each NaN with the most recent earlier value. Leading
// NaNs remain NaN.
func ForwardFill(v []float64) []float64 {
	out := make([]float64, len(v))
	last := math.NaN()
	for i, x := range v {
		if !math.IsNaN(x) {
			last = x
		}
		out[i] = last
	}
	return out
}

// BackFill replaces each NaN with the nearest later value. Trailing NaNs
// remain NaN.
func BackFill(v []float64) []float64 {
	out := make([]float64, len(v))
	next := math.NaN()
	for i := len(v) - 1; i >= 0; i-- {
		if !math.IsNaN(v[i]) {
			next = v[i]
		}
		out[i] = next
	}
	return out
}

// InterpLinear fills NaN gaps in v by linear interpolation between the
// bracketing known values, weighted by the x coordinates (typically days
// since epoch). NaNs before the first known value remain NaN; NaNs after the
// last known value take that last value.
func InterpLinear(x, v []float64) []float64 {
	known := knownIndices(v)
	out := make([]float64, len(v))
	copy(out, v)
	if len(known) == 0 {
		return out
	}
	for i, y := range v {
		if !math.IsNaN(y) {
			continue
		}
		a, b, ok := bracket(known, i)
		switch {
		case !ok && i > known[len(known)-1]:
			out[i] = v[known[len(known)-1]]
		case !ok:
			// before the first known value
		default:
			t := (x[i] - x[a]) / (x[b] - x[a])
			out[i] = v[a] + (v[b]-v[a])*t
		}
	}
	return out
}

// InterpQuadratic fills NaN gaps in v by fitting a parabola through the
// bracketing known values and the nearest third known point, on the x axis.
// With fewer than three known values it behaves like InterpLinear. Edge
// behavior matches InterpLinear.
func InterpQuadratic(x, v []float64) []float64 {
	known := knownIndices(v)
	if len(known) < 3 {
		return InterpLinear(x, v)
	}
	out := make([]float64, len(v))
	copy(out, v)
	for i, y := range v {
		if !math.IsNaN(y) {
			continue
		}
		a, b, ok := bracket(known, i)
		switch {
		case !ok && i > known[len(known)-1]:
			out[i] = v[known[len(known)-1]]
		case !ok:
			// before the first known value
		default:
			c := thirdPoint(known, x, a, b, x[i])
			out[i] = lagrange3(x[a], v[a], x[b], v[b], x[c], v[c], x[i])
		}
	}
	return out
}

// knownIndices returns the sorted indices of non-NaN values.
func knownIndices(v []float64) []int {
	var ks []int
	for i, x := range v {
		if !math.IsNaN(x) {
			ks = append(ks, i)
		}
	}
	return ks
}

// bracket returns the known indices immediately before and after i. ok is
// false when i falls outside the known range.
func bracket(known []int, i int) (a, b int, ok bool) {
	j := sort.SearchInts(known, i)
	if j == 0 || j == len(known) {
		return 0, 0, false
	}
	return known[j-1], known[j], true
}

// thirdPoint picks the known index nearest to xi on the x axis, excluding the
// bracketing pair a and b.
func thirdPoint(known []int, x []float64, a, b int, xi float64) int {
	best := -1
	bestDist := math.Inf(1)
	for _, k := range known {
		if k == a || k == b {
			continue
		}
		d := math.Abs(x[k] - xi)
		if d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

// lagrange3 evaluates the parabola through three points at xi.
func lagrange3(x0, y0, x1, y1, x2, y2, xi float64) float64 {
	l0 := (xi - x1) * (xi - x2) / ((x0 - x1) * (x0 - x2))
	l1 := (xi - x0) * (xi - x2) / ((x1 - x0) * (x1 - x2))
	l2 := (xi - x0) * (xi - x1) / ((x2 - x0) * (x2 - x1))
	return y0*l0 + y1*l1 + y2*l2
}
