// Package transform holds reusable panel transformations: outlier limiting,
// multi-year averaging of trailing-twelve-month data, drawdowns and moving
// z-scores. The TTM helpers are shaped as panel.Func so they can be passed
// straight into the signal assemblers as caller-supplied window functions.
package transform

import (
	"math"
	"sort"

	"github.com/bulkfin/bulkfin-go/internal/floats"
	"github.com/bulkfin/bulkfin-go/pkg/errs"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// Clip limits values to per-column bounds. Columns without an entry in
// lower or upper pass through unchanged on that side. When limit is true,
// values outside the bounds are set to the boundary value; otherwise they
// are set to NaN. NaN values stay NaN either way.
func Clip(p *panel.Panel, lower, upper map[string]float64, limit bool) *panel.Panel {
	return p.Apply(func(f panel.Frame) panel.Frame {
		cols := make([]panel.Column, 0, len(f.Columns()))
		for _, name := range f.Columns() {
			v, _ := f.Values(name)
			lo, hasLo := lower[name]
			hi, hasHi := upper[name]
			out := make([]float64, len(v))
			for i, x := range v {
				out[i] = bound(x, lo, hasLo, hi, hasHi, limit)
			}
			cols = append(cols, panel.Column{Name: name, Values: out})
		}
		return panel.FrameOf(f.Dates(), cols...)
	})
}

// Winsorize limits each column between its quantile and 1-quantile values,
// computed across the whole panel per column, ignoring NaN and infinite
// values. When limit is true, outliers are set to the boundary value;
// otherwise they are set to NaN. Either columns (winsorize only these) or
// excludeColumns (winsorize all but these) may be given, not both.
func Winsorize(p *panel.Panel, quantile float64, limit bool, columns, excludeColumns []string) (*panel.Panel, error) {
	if columns != nil && excludeColumns != nil {
		return nil, errs.InvalidArgumentf("columns and excludeColumns cannot both be set")
	}
	if quantile < 0 || quantile > 1 {
		return nil, errs.InvalidArgumentf("quantile %v outside [0, 1]", quantile)
	}

	selected := make(map[string]bool)
	switch {
	case columns != nil:
		for _, name := range columns {
			selected[name] = true
		}
	case excludeColumns != nil:
		excluded := make(map[string]bool)
		for _, name := range excludeColumns {
			excluded[name] = true
		}
		for _, name := range p.Columns() {
			if !excluded[name] {
				selected[name] = true
			}
		}
	default:
		for _, name := range p.Columns() {
			selected[name] = true
		}
	}

	lower := make(map[string]float64)
	upper := make(map[string]float64)
	for name := range selected {
		var finite []float64
		for _, g := range p.Groups() {
			v, ok := g.Frame.Values(name)
			if !ok {
				continue
			}
			for _, x := range v {
				if !math.IsNaN(x) && !math.IsInf(x, 0) {
					finite = append(finite, x)
				}
			}
		}
		lo, okLo := quantileOf(finite, quantile)
		hi, okHi := quantileOf(finite, 1-quantile)
		if okLo {
			lower[name] = lo
		}
		if okHi {
			upper[name] = hi
		}
	}
	return Clip(p, lower, upper, limit), nil
}

func bound(x, lo float64, hasLo bool, hi float64, hasHi, limit bool) float64 {
	if math.IsNaN(x) {
		return x
	}
	if limit {
		if hasLo && x < lo {
			return lo
		}
		if hasHi && x > hi {
			return hi
		}
		return x
	}
	if (hasLo && x < lo) || (hasHi && x > hi) {
		return math.NaN()
	}
	return x
}

// quantileOf returns the linearly interpolated q-quantile of values.
func quantileOf(values []float64, q float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	h := q * float64(len(s)-1)
	i := int(math.Floor(h))
	if i >= len(s)-1 {
		return s[len(s)-1], true
	}
	return s[i] + (h-float64(i))*(s[i+1]-s[i]), true
}

// AvgTTM2Y computes per-entity 2-year averages of trailing-twelve-month
// data, which has four rows per year. Unlike a rolling average this weighs
// the two years equally instead of over-weighing recent quarters.
func AvgTTM2Y(f panel.Frame) panel.Frame {
	return avgTTM(f, 2)
}

// AvgTTM3Y computes per-entity 3-year averages of trailing-twelve-month
// data.
func AvgTTM3Y(f panel.Frame) panel.Frame {
	return avgTTM(f, 3)
}

// AvgTTM returns a panel.Func computing multi-year averages of
// trailing-twelve-month data over the given number of years.
func AvgTTM(years int) panel.Func {
	return func(f panel.Frame) panel.Frame {
		return avgTTM(f, years)
	}
}

func avgTTM(f panel.Frame, years int) panel.Frame {
	cols := make([]panel.Column, 0, len(f.Columns()))
	for _, name := range f.Columns() {
		v, _ := f.Values(name)
		sum := make([]float64, len(v))
		copy(sum, v)
		for y := 1; y < years; y++ {
			shifted := floats.Shift(v, 4*y)
			for i := range sum {
				sum[i] += shifted[i]
			}
		}
		for i := range sum {
			sum[i] /= float64(years)
		}
		cols = append(cols, panel.Column{Name: name, Values: sum})
	}
	return panel.FrameOf(f.Dates(), cols...)
}

// RelChangeTTM1Y computes per-entity 1-year relative changes of
// trailing-twelve-month data: the value divided by the value four rows
// earlier, minus one.
func RelChangeTTM1Y(f panel.Frame) panel.Frame {
	return relChangeTTM(f, 4)
}

// RelChangeTTM2Y computes per-entity 2-year relative changes of
// trailing-twelve-month data.
func RelChangeTTM2Y(f panel.Frame) panel.Frame {
	return relChangeTTM(f, 8)
}

func relChangeTTM(f panel.Frame, periods int) panel.Frame {
	cols := make([]panel.Column, 0, len(f.Columns()))
	for _, name := range f.Columns() {
		v, _ := f.Values(name)
		prev := floats.Shift(v, periods)
		out := make([]float64, len(v))
		for i := range v {
			out[i] = v[i]/prev[i] - 1
		}
		cols = append(cols, panel.Column{Name: name, Values: out})
	}
	return panel.FrameOf(f.Dates(), cols...)
}

// MaxDrawdown returns how far each value sits below its running maximum,
// as a non-positive fraction. With window zero the maximum runs from the
// beginning of each entity's history; with a positive window it is taken
// over a rolling window of that length.
func MaxDrawdown(p *panel.Panel, window int) (*panel.Panel, error) {
	if window < 0 {
		return nil, errs.InvalidArgumentf("negative window %d", window)
	}
	return p.Apply(func(f panel.Frame) panel.Frame {
		cols := make([]panel.Column, 0, len(f.Columns()))
		for _, name := range f.Columns() {
			v, _ := f.Values(name)
			var peak []float64
			if window == 0 {
				peak = floats.CumMax(v)
			} else {
				peak = floats.RollingMax(v, window)
			}
			out := make([]float64, len(v))
			for i := range v {
				out[i] = v[i]/peak[i] - 1
			}
			cols = append(cols, panel.Column{Name: name, Values: out})
		}
		return panel.FrameOf(f.Dates(), cols...)
	}), nil
}

// MovingZScore returns how many standard deviations each value sits from a
// moving mean. With rolling true the mean and deviation are taken over a
// window of periods rows; otherwise over all preceding rows, starting once
// periods rows have accumulated.
func MovingZScore(p *panel.Panel, periods int, rolling bool) (*panel.Panel, error) {
	if periods < 1 {
		return nil, errs.InvalidArgumentf("periods %d", periods)
	}
	return p.Apply(func(f panel.Frame) panel.Frame {
		cols := make([]panel.Column, 0, len(f.Columns()))
		for _, name := range f.Columns() {
			v, _ := f.Values(name)
			var mean, std []float64
			if rolling {
				mean = floats.RollingMean(v, periods)
				std = floats.RollingStd(v, periods)
			} else {
				mean = floats.ExpandingMean(v, periods)
				std = floats.ExpandingStd(v, periods)
			}
			out := make([]float64, len(v))
			for i := range v {
				out[i] = (v[i] - mean[i]) / std[i]
			}
			cols = append(cols, panel.Column{Name: name, Values: out})
		}
		return panel.FrameOf(f.Dates(), cols...)
	}), nil
}
