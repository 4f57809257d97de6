// Package change computes growth rates over panels: plain relative change
// between two points of each series, and the mean of log-changes over a span
// of lookback or lookahead horizons. All computations run per group, so one
// entity's history never bleeds into another's.
package change

import (
	"math"

	"github.com/bulkfin/bulkfin-go/internal/floats"
	"github.com/bulkfin/bulkfin-go/pkg/errs"
	"github.com/bulkfin/bulkfin-go/pkg/freq"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// RelativeOptions configures Relative.
type RelativeOptions struct {
	// Freq is the sampling frequency of the panel's date axis.
	Freq freq.Frequency
	// Offset is the calendar distance between the two compared points.
	Offset freq.Duration
	// Future compares each value against the later point instead of the
	// earlier one, producing the forward-looking change.
	Future bool
	// Annualized converts the change to a compounded annual rate.
	Annualized bool
	// Rename maps input column names to output names. Optional.
	Rename map[string]string
}

// Relative returns the relative change of every column over the given
// calendar offset: value divided by the value one offset earlier, minus one.
// With Future the result is aligned to the earlier row, answering "how much
// will this grow". With Annualized the ratio is first raised to the power of
// one over the offset in years.
func Relative(p *panel.Panel, opts RelativeOptions) (*panel.Panel, error) {
	steps, years, err := freq.ToPeriods(opts.Freq, opts.Offset)
	if err != nil {
		return nil, err
	}
	out := p.Apply(func(f panel.Frame) panel.Frame {
		cols := make([]panel.Column, 0, len(f.Columns()))
		for _, name := range f.Columns() {
			v, _ := f.Values(name)
			prev := floats.Shift(v, steps)
			ratio := make([]float64, len(v))
			for i := range v {
				ratio[i] = v[i] / prev[i]
			}
			if opts.Future {
				ratio = floats.Shift(ratio, -steps)
			}
			for i, r := range ratio {
				if opts.Annualized {
					ratio[i] = math.Pow(r, 1/years) - 1
				} else {
					ratio[i] = r - 1
				}
			}
			cols = append(cols, panel.Column{Name: name, Values: ratio})
		}
		return panel.FrameOf(f.Dates(), cols...)
	})
	if opts.Rename != nil {
		out = out.Rename(opts.Rename)
	}
	return out, nil
}

// MeanLogOptions configures MeanLog.
type MeanLogOptions struct {
	// Freq is the sampling frequency of the panel's date axis.
	Freq freq.Frequency
	// MinOffset and MaxOffset bound the span of horizons to average over.
	// MinOffset must resolve to fewer periods than MaxOffset.
	MinOffset freq.Duration
	MaxOffset freq.Duration
	// Future averages log-changes looking ahead instead of back.
	Future bool
	// Annualized weights each horizon by one over its distance in years
	// instead of in periods.
	Annualized bool
	// Rename maps input column names to output names. Optional.
	Rename map[string]string
}

// MeanLog returns the mean logarithmic change of every column across the
// horizons between MinOffset and MaxOffset. The mean is computed with a
// single weighted rolling sum over the log series, which is why the whole
// span costs one pass regardless of how many horizons it covers.
func MeanLog(p *panel.Panel, opts MeanLogOptions) (*panel.Panel, error) {
	minSteps, minYears, err := freq.ToPeriods(opts.Freq, opts.MinOffset)
	if err != nil {
		return nil, err
	}
	maxSteps, maxYears, err := freq.ToPeriods(opts.Freq, opts.MaxOffset)
	if err != nil {
		return nil, err
	}
	if minSteps >= maxSteps {
		return nil, errs.InvalidArgumentf("min offset (%d periods) must be shorter than max offset (%d periods)", minSteps, maxSteps)
	}
	n := maxSteps - minSteps

	exps := make([]float64, n)
	for i := range exps {
		if opts.Annualized {
			exps[i] = 1 / ((maxYears-minYears)*(float64(i)/float64(n-1)) + minYears)
		} else {
			exps[i] = 1 / float64(minSteps+i)
		}
	}
	if !opts.Future {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			exps[i], exps[j] = exps[j], exps[i]
		}
	}
	sum := 0.0
	for _, e := range exps {
		sum += e
	}

	out := p.Apply(func(f panel.Frame) panel.Frame {
		cols := make([]panel.Column, 0, len(f.Columns()))
		for _, name := range f.Columns() {
			v, _ := f.Values(name)
			logs := floats.Log(v)
			dot := floats.RollingDot(logs, exps)
			res := make([]float64, len(v))
			if opts.Future {
				ahead := floats.Shift(dot, -maxSteps)
				for i := range res {
					res[i] = (ahead[i] - logs[i]*sum) / float64(n)
				}
			} else {
				behind := floats.Shift(dot, minSteps)
				for i := range res {
					res[i] = (logs[i]*sum - behind[i]) / float64(n)
				}
			}
			cols = append(cols, panel.Column{Name: name, Values: res})
		}
		return panel.FrameOf(f.Dates(), cols...)
	})
	if opts.Rename != nil {
		out = out.Rename(opts.Rename)
	}
	return out, nil
}
