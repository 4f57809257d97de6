package hub

import (
	"context"

	"github.com/bulkfin/bulkfin-go/pkg/change"
	"github.com/bulkfin/bulkfin-go/pkg/freq"
	"github.com/bulkfin/bulkfin-go/pkg/names"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// ReturnsOptions configures Returns.
type ReturnsOptions struct {
	// Name renames the output column. Empty keeps the total-return name.
	Name string
	// Offset is the horizon of each return. Zero means one trading day.
	Offset freq.Duration
	// Future computes forward-looking returns aligned to the buy date.
	Future bool
	// Annualized converts each return to a compounded annual rate.
	Annualized bool
}

// Returns computes stock returns from the adjusted closing price of the
// daily share prices.
func (h *Hub) Returns(ctx context.Context, opts ReturnsOptions) (*panel.Panel, error) {
	offset := opts.Offset
	if offset == (freq.Duration{}) {
		offset = freq.Duration{BDays: 1}
	}
	key := h.key("returns", opts.Name, offset, opts.Future, opts.Annualized)
	sources := h.sourcePaths(h.pricesSpec("daily"))
	return h.run(ctx, key, h.store, sources, func(ctx context.Context) (*panel.Panel, error) {
		prices, err := h.SharePrices(ctx, "daily")
		if err != nil {
			return nil, err
		}
		total, err := prices.Select(names.TotalReturn)
		if err != nil {
			return nil, err
		}
		ropts := change.RelativeOptions{
			Freq:       freq.TradingDay,
			Offset:     offset,
			Future:     opts.Future,
			Annualized: opts.Annualized,
		}
		if opts.Name != "" {
			ropts.Rename = map[string]string{names.TotalReturn: opts.Name}
		}
		return change.Relative(total, ropts)
	})
}

// MeanLogReturnsOptions configures MeanLogReturns.
type MeanLogReturnsOptions struct {
	// Name renames the output column. Empty keeps the total-return name.
	Name string
	// MinOffset and MaxOffset bound the span of horizons averaged over.
	// Zero values mean one trading day and one year.
	MinOffset freq.Duration
	MaxOffset freq.Duration
	// Future averages forward-looking returns instead of trailing ones.
	Future bool
	// Annualized weights each horizon into a compounded annual rate.
	Annualized bool
}

// MeanLogReturns computes the mean log stock return over a span of horizons
// from the adjusted closing price of the daily share prices. Averaging over
// many horizons smooths out the noise of any single holding period.
func (h *Hub) MeanLogReturns(ctx context.Context, opts MeanLogReturnsOptions) (*panel.Panel, error) {
	minOffset := opts.MinOffset
	if minOffset == (freq.Duration{}) {
		minOffset = freq.Duration{BDays: 1}
	}
	maxOffset := opts.MaxOffset
	if maxOffset == (freq.Duration{}) {
		maxOffset = freq.Duration{Years: 1}
	}
	key := h.key("mean-log-returns", opts.Name, minOffset, maxOffset, opts.Future, opts.Annualized)
	sources := h.sourcePaths(h.pricesSpec("daily"))
	return h.run(ctx, key, h.store, sources, func(ctx context.Context) (*panel.Panel, error) {
		prices, err := h.SharePrices(ctx, "daily")
		if err != nil {
			return nil, err
		}
		total, err := prices.Select(names.TotalReturn)
		if err != nil {
			return nil, err
		}
		mopts := change.MeanLogOptions{
			Freq:       freq.TradingDay,
			MinOffset:  minOffset,
			MaxOffset:  maxOffset,
			Future:     opts.Future,
			Annualized: opts.Annualized,
		}
		if opts.Name != "" {
			mopts.Rename = map[string]string{names.TotalReturn: opts.Name}
		}
		return change.MeanLog(total, mopts)
	})
}
