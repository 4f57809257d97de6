// Package signals assembles named signal panels from share-prices and
// financial statements: price trend indicators, buy/sell/hold crossovers,
// trading-volume signals, financial ratios, growth rates and valuation
// ratios. Every assembler follows the same shape: select raw fields, shift
// report dates by an optional publish lag, compute named columns, optionally
// run a caller-supplied window function, reindex onto the price grid and
// sort columns by name.
package signals

import (
	"github.com/bulkfin/bulkfin-go/internal/floats"
	"github.com/bulkfin/bulkfin-go/pkg/align"
	"github.com/bulkfin/bulkfin-go/pkg/freq"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// onPriceDates reindexes a fundamentals-dated panel onto the price grid,
// filling across the union of both grids so off-grid report dates are not
// skipped over.
func onPriceDates(p, prices *panel.Panel, method align.Method) (*panel.Panel, error) {
	return align.Reindex(p, prices, align.ReindexOptions{
		Method:          method,
		Union:           true,
		OnlyTargetIndex: true,
	})
}

// shiftIfSet applies a publish lag to report dates when one is given.
func shiftIfSet(p *panel.Panel, offset freq.Duration) (*panel.Panel, error) {
	if offset.IsZero() {
		return p, nil
	}
	return p.ShiftDates(offset)
}

// applyIfSet runs a caller-supplied per-entity function when one is given.
func applyIfSet(p *panel.Panel, fn panel.Func) *panel.Panel {
	if fn == nil {
		return p
	}
	return p.Apply(fn)
}

// leftPad aligns a tail-shortened indicator output to the input length by
// padding the warm-up rows with NaN.
func leftPad(v []float64, n int) []float64 {
	out := floats.NaNs(n)
	copy(out[n-len(v):], v)
	return out
}

// series returns a column from a frame that is known to contain it. The
// assemblers select and join their inputs up front, so a miss here would be
// a bug, not bad input.
func series(f panel.Frame, name string) []float64 {
	v, _ := f.Values(name)
	return v
}
