// Package align changes the date grid of a panel: resampling onto a fixed
// calendar frequency, and reindexing one panel onto another's exact dates.
// The typical use is stretching quarterly fundamentals onto daily price
// dates with forward-fill. All grid work happens per group, so one entity's
// fill never bleeds into another's.
package align

import (
	"math"
	"time"

	"github.com/bulkfin/bulkfin-go/internal/floats"
	"github.com/bulkfin/bulkfin-go/pkg/errs"
	"github.com/bulkfin/bulkfin-go/pkg/freq"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// FillFunc fills gaps in values positioned on dates. NaN marks a gap. The
// returned slice must have the same length as values.
type FillFunc func(dates []time.Time, values []float64) []float64

type methodKind int

const (
	methodFFill methodKind = iota
	methodBFill
	methodLinear
	methodQuadratic
	methodMean
	methodCustom
)

// Method selects how missing values are produced on a new date grid. The
// zero value is ForwardFill.
type Method struct {
	kind methodKind
	fn   FillFunc
}

var (
	// ForwardFill carries the last known value forward.
	ForwardFill = Method{kind: methodFFill}
	// BackFill carries the next known value backward.
	BackFill = Method{kind: methodBFill}
	// Linear interpolates gaps linearly on the time axis.
	Linear = Method{kind: methodLinear}
	// Quadratic interpolates gaps with a parabola through the three nearest
	// known points on the time axis.
	Quadratic = Method{kind: methodQuadratic}
	// Mean averages source values per grid bucket. Only valid for Resample.
	Mean = Method{kind: methodMean}
)

// Custom fills gaps with a caller-supplied function.
func Custom(fn FillFunc) Method {
	return Method{kind: methodCustom, fn: fn}
}

func (m Method) String() string {
	switch m.kind {
	case methodFFill:
		return "ffill"
	case methodBFill:
		return "bfill"
	case methodLinear:
		return "linear"
	case methodQuadratic:
		return "quadratic"
	case methodMean:
		return "mean"
	case methodCustom:
		return "custom"
	}
	return "unknown"
}

// ParseMethod maps a method name, as found in config files, to a Method.
// Custom methods have no name and cannot be parsed.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "ffill", "":
		return ForwardFill, nil
	case "bfill":
		return BackFill, nil
	case "linear":
		return Linear, nil
	case "quadratic":
		return Quadratic, nil
	case "mean":
		return Mean, nil
	}
	return Method{}, errs.InvalidArgumentf("unknown fill method %q", name)
}

// Resample re-expresses every group on a fixed-frequency calendar grid
// anchored at the group's first date and stepping by rule, up to its last
// date. Fill methods first place the source values on the union of their own
// dates and the grid, fill across that, and cut down to the grid, so source
// rows between grid points still influence the fill. Mean instead averages
// the source values falling into each grid bucket, ignoring NaN.
// TradingDay has no calendar step and is rejected.
func Resample(p *panel.Panel, rule freq.Frequency, method Method) (*panel.Panel, error) {
	step, err := gridStep(rule)
	if err != nil {
		return nil, err
	}
	if method.kind == methodCustom && method.fn == nil {
		return nil, errs.InvalidArgumentf("custom method without a function")
	}

	groups := make([]panel.Group, 0, len(p.Groups()))
	for _, g := range p.Groups() {
		f := g.Frame
		if f.Len() == 0 {
			groups = append(groups, g)
			continue
		}
		dates := f.Dates()
		grid := buildGrid(dates[0], dates[len(dates)-1], step)

		var out panel.Frame
		if method.kind == methodMean {
			out = bucketMean(f, grid)
		} else {
			union := panel.DateUnion(dates, grid)
			filled, err := fillFrame(f.OnGrid(union), method)
			if err != nil {
				return nil, err
			}
			out = filled.OnGrid(grid)
		}
		groups = append(groups, panel.Group{ID: g.ID, Frame: out})
	}
	return panel.New(p.EntityKey(), groups...)
}

// ReindexOptions configures Reindex. The zero value fills forward directly
// on the target grid.
type ReindexOptions struct {
	// Method fills values missing on the new grid.
	Method Method
	// Union first places the source on the union of both date grids and
	// fills across that, so source observations falling between target
	// dates still stop a stale value from being carried past them.
	Union bool
	// OnlyTargetIndex cuts a union-filled result down to exactly the
	// target's dates. Without Union it has no effect.
	OnlyTargetIndex bool
}

// Reindex re-expresses source on target's date grid, group by group. The
// result carries source's columns on target's groups and dates; a target
// group with no source counterpart comes out all-NaN. Both panels must have
// the same entity key (or both be ungrouped). Mean is a bucket aggregation
// and is rejected here.
func Reindex(source, target *panel.Panel, opts ReindexOptions) (*panel.Panel, error) {
	if source.EntityKey() != target.EntityKey() {
		return nil, errs.TypeMismatchf("reindexing %q panel onto %q panel", source.EntityKey(), target.EntityKey())
	}
	if opts.Method.kind == methodMean {
		return nil, errs.InvalidArgumentf("mean fill requires a resampling rule, not a target grid")
	}
	if opts.Method.kind == methodCustom && opts.Method.fn == nil {
		return nil, errs.InvalidArgumentf("custom method without a function")
	}
	columns := source.Columns()

	groups := make([]panel.Group, 0, len(target.Groups()))
	for _, tg := range target.Groups() {
		tdates := tg.Frame.Dates()
		sf, ok := source.Group(tg.ID)
		if !ok {
			cols := make([]panel.Column, len(columns))
			for i, name := range columns {
				cols[i] = panel.Column{Name: name, Values: floats.NaNs(len(tdates))}
			}
			groups = append(groups, panel.Group{ID: tg.ID, Frame: panel.FrameOf(tdates, cols...)})
			continue
		}

		var out panel.Frame
		var err error
		if opts.Union {
			union := panel.DateUnion(sf.Dates(), tdates)
			out, err = fillFrame(sf.OnGrid(union), opts.Method)
			if err != nil {
				return nil, err
			}
			if opts.OnlyTargetIndex {
				out = out.OnGrid(tdates)
			}
		} else {
			out, err = fillFrame(sf.OnGrid(tdates), opts.Method)
			if err != nil {
				return nil, err
			}
		}
		groups = append(groups, panel.Group{ID: tg.ID, Frame: out})
	}
	return panel.New(source.EntityKey(), groups...)
}

// fillFrame applies a fill method to every column of a frame.
func fillFrame(f panel.Frame, method Method) (panel.Frame, error) {
	dates := f.Dates()
	var x []float64
	if method.kind == methodLinear || method.kind == methodQuadratic {
		x = epochDays(dates)
	}
	cols := make([]panel.Column, 0, len(f.Columns()))
	for _, name := range f.Columns() {
		v, _ := f.Values(name)
		var filled []float64
		switch method.kind {
		case methodFFill:
			filled = floats.ForwardFill(v)
		case methodBFill:
			filled = floats.BackFill(v)
		case methodLinear:
			filled = floats.InterpLinear(x, v)
		case methodQuadratic:
			filled = floats.InterpQuadratic(x, v)
		case methodCustom:
			filled = method.fn(dates, v)
			if len(filled) != len(v) {
				return panel.Frame{}, errs.InvalidInputf("custom fill returned %d values for %d dates in column %q", len(filled), len(v), name)
			}
		}
		cols = append(cols, panel.Column{Name: name, Values: filled})
	}
	return panel.FrameOf(dates, cols...), nil
}

// bucketMean averages each column over grid buckets: bucket k spans from
// grid[k] up to but not including grid[k+1], the last bucket extends to the
// end of the frame. NaN values are ignored; empty buckets are NaN.
func bucketMean(f panel.Frame, grid []time.Time) panel.Frame {
	names := f.Columns()
	sums := make([][]float64, len(names))
	counts := make([][]int, len(names))
	for i := range names {
		sums[i] = make([]float64, len(grid))
		counts[i] = make([]int, len(grid))
	}

	bucket := 0
	for row, d := range f.Dates() {
		for bucket+1 < len(grid) && !d.Before(grid[bucket+1]) {
			bucket++
		}
		for i, name := range names {
			v, _ := f.Values(name)
			if !math.IsNaN(v[row]) {
				sums[i][bucket] += v[row]
				counts[i][bucket]++
			}
		}
	}

	cols := make([]panel.Column, len(names))
	for i, name := range names {
		vals := make([]float64, len(grid))
		for k := range grid {
			if counts[i][k] == 0 {
				vals[k] = math.NaN()
			} else {
				vals[k] = sums[i][k] / float64(counts[i][k])
			}
		}
		cols[i] = panel.Column{Name: name, Values: vals}
	}
	return panel.FrameOf(grid, cols...)
}

// gridStep returns the calendar step for a resampling rule.
func gridStep(rule freq.Frequency) (func(time.Time) time.Time, error) {
	switch rule {
	case freq.Day:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }, nil
	case freq.Week:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }, nil
	case freq.Month:
		return func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }, nil
	case freq.Quarter:
		return func(t time.Time) time.Time { return t.AddDate(0, 3, 0) }, nil
	case freq.Year:
		return func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }, nil
	case freq.TradingDay:
		return nil, errs.InvalidArgumentf("trading days have no fixed calendar grid")
	}
	return nil, errs.InvalidArgumentf("unknown resampling rule %v", rule)
}

func buildGrid(first, last time.Time, step func(time.Time) time.Time) []time.Time {
	var grid []time.Time
	for t := first; !t.After(last); t = step(t) {
		grid = append(grid, t)
	}
	return grid
}

func epochDays(dates []time.Time) []float64 {
	out := make([]float64, len(dates))
	for i, d := range dates {
		out[i] = float64(d.Unix()) / 86400
	}
	return out
}
