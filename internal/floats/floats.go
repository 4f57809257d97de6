// Package floats provides NaN-aware primitives over float64 slices: shifts,
// rolling windows and gap interpolation. A NaN marks a missing observation;
// every operation propagates it the way numeric tables do, so one entity's
// edge values never abort a whole computation.
package floats

import "math"

// Shift moves values by p positions: positive p shifts toward later rows
// (out[i] = v[i-p]), negative toward earlier rows. Vacated positions are NaN.
func Shift(v []float64, p int) []float64 {
	out := make([]float64, len(v))
	for i := range out {
		j := i - p
		if j < 0 || j >= len(v) {
			out[i] = math.NaN()
		} else {
			out[i] = v[j]
		}
	}
	return out
}

// RollingMean returns the mean of each trailing window of length w. Rows
// before the first complete window are NaN, and any window containing a NaN
// yields NaN.
func RollingMean(v []float64, w int) []float64 {
	out := nanSlice(len(v))
	if w <= 0 || w > len(v) {
		return out
	}
	for i := w - 1; i < len(v); i++ {
		sum := 0.0
		for _, x := range v[i-w+1 : i+1] {
			sum += x
		}
		out[i] = sum / float64(w)
	}
	return out
}

// RollingStd returns the sample standard deviation (n-1 denominator) of each
// trailing window of length w, with the same NaN window semantics as
// RollingMean. Windows of length 1 yield NaN.
func RollingStd(v []float64, w int) []float64 {
	out := nanSlice(len(v))
	if w <= 1 || w > len(v) {
		return out
	}
	for i := w - 1; i < len(v); i++ {
		window := v[i-w+1 : i+1]
		mean := 0.0
		for _, x := range window {
			mean += x
		}
		mean /= float64(w)
		ss := 0.0
		for _, x := range window {
			d := x - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(w-1))
	}
	return out
}

// RollingMax returns the maximum of each trailing window of length w, NaN
// until the first complete window and NaN for windows containing NaN.
func RollingMax(v []float64, w int) []float64 {
	out := nanSlice(len(v))
	if w <= 0 || w > len(v) {
		return out
	}
	for i := w - 1; i < len(v); i++ {
		max := math.Inf(-1)
		for _, x := range v[i-w+1 : i+1] {
			if math.IsNaN(x) {
				max = math.NaN()
				break
			}
			if x > max {
				max = x
			}
		}
		out[i] = max
	}
	return out
}

// RollingDot returns, for each trailing window the length of exps, the dot
// product of the window with exps. Rows before the first complete window are
// NaN; NaN or Inf inside a window propagates into the product.
func RollingDot(v []float64, exps []float64) []float64 {
	out := nanSlice(len(v))
	n := len(exps)
	if n == 0 || n > len(v) {
		return out
	}
	for i := n - 1; i < len(v); i++ {
		sum := 0.0
		for k, x := range v[i-n+1 : i+1] {
			sum += x * exps[k]
		}
		out[i] = sum
	}
	return out
}

// ExpandingMean returns the mean of the non-NaN values in v[0..i] for each
// i, NaN until at least minPeriods such values have been seen.
func ExpandingMean(v []float64, minPeriods int) []float64 {
	out := nanSlice(len(v))
	if minPeriods < 1 {
		minPeriods = 1
	}
	sum, count := 0.0, 0
	for i, x := range v {
		if !math.IsNaN(x) {
			sum += x
			count++
		}
		if count >= minPeriods {
			out[i] = sum / float64(count)
		}
	}
	return out
}

// ExpandingStd returns the sample standard deviation of the non-NaN values
// in v[0..i] for each i, NaN until at least minPeriods (lower bound 2) such
// values have been seen.
func ExpandingStd(v []float64, minPeriods int) []float64 {
	out := nanSlice(len(v))
	if minPeriods < 2 {
		minPeriods = 2
	}
	sum, sumsq, count := 0.0, 0.0, 0
	for i, x := range v {
		if !math.IsNaN(x) {
			sum += x
			sumsq += x * x
			count++
		}
		if count >= minPeriods {
			mean := sum / float64(count)
			variance := (sumsq - sum*mean) / float64(count-1)
			if variance < 0 {
				variance = 0
			}
			out[i] = math.Sqrt(variance)
		}
	}
	return out
}

// CumMax returns the running maximum. NaN values leave the running maximum
// unchanged but produce NaN output until a first real value is seen.
func CumMax(v []float64) []float64 {
	out := make([]float64, len(v))
	max := math.NaN()
	for i, x := range v {
		if math.IsNaN(max) || (!math.IsNaN(x) && x > max) {
			max = x
		}
		out[i] = max
	}
	return out
}

// Log returns the natural logarithm of each value. Non-positive values map
// to NaN or -Inf per math.Log.
func Log(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Log(x)
	}
	return out
}

// Log10 returns the base-10 logarithm of each value.
func Log10(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Log10(x)
	}
	return out
}

// Coalesce returns a with NaN entries replaced by the corresponding entry
// of b. The slices must be the same length.
func Coalesce(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i, x := range a {
		if math.IsNaN(x) {
			out[i] = b[i]
		} else {
			out[i] = x
		}
	}
	return out
}

// Nz returns v with NaN entries replaced by zero.
func Nz(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if math.IsNaN(x) {
			out[i] = 0
		} else {
			out[i] = x
		}
	}
	return out
}

// Neg returns v with every value negated.
func Neg(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

// Add returns the elementwise sum of a and b. The slices must be the same
// length.
func Add(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i, x := range a {
		out[i] = x + b[i]
	}
	return out
}

// Div returns the elementwise quotient a over b. The slices must be the
// same length.
func Div(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i, x := range a {
		out[i] = x / b[i]
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// NaNs returns a slice of n NaN values.
func NaNs(n int) []float64 {
	return nanSlice(n)
}
