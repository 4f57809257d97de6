package hub

import (
	"context"

	"github.com/bulkfin/bulkfin-go/pkg/bulk"
	"github.com/bulkfin/bulkfin-go/pkg/errs"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
	"github.com/bulkfin/bulkfin-go/pkg/signals"
)

// PriceSignals computes technical signals from the daily share prices:
// simple and exponential moving averages plus the MACD line and its
// signal line.
func (h *Hub) PriceSignals(ctx context.Context) (*panel.Panel, error) {
	key := h.key("price-signals")
	sources := h.sourcePaths(h.pricesSpec("daily"))
	return h.run(ctx, key, h.store, sources, func(ctx context.Context) (*panel.Panel, error) {
		prices, err := h.SharePrices(ctx, "daily")
		if err != nil {
			return nil, err
		}
		return signals.Price(prices)
	})
}

// TradeSignals turns two price-signal columns into buy, sell and hold
// flags from their crossovers.
func (h *Hub) TradeSignals(ctx context.Context, signal1, signal2 string) (*panel.Panel, error) {
	key := h.key("trade-signals", signal1, signal2)
	sources := h.sourcePaths(h.pricesSpec("daily"))
	return h.run(ctx, key, h.store, sources, func(ctx context.Context) (*panel.Panel, error) {
		priceSignals, err := h.PriceSignals(ctx)
		if err != nil {
			return nil, err
		}
		return signals.Trade(priceSignals, signal1, signal2)
	})
}

// VolumeSignalsOptions configures VolumeSignals.
type VolumeSignalsOptions struct {
	// Window is the moving-average span in trading days. Zero means 20.
	Window int
	// SharesColumn picks the share count used for relative volume. Empty
	// means basic shares.
	SharesColumn string
}

// VolumeSignals computes share-volume signals from the daily share prices,
// with share counts taken from the trailing-twelve-month income statements.
func (h *Hub) VolumeSignals(ctx context.Context, opts VolumeSignalsOptions) (*panel.Panel, error) {
	key := h.key("volume-signals", opts.Window, opts.SharesColumn)
	sources := h.sourcePaths(h.pricesSpec("daily"), h.statementSpec("income", "ttm"))
	return h.run(ctx, key, h.store, sources, func(ctx context.Context) (*panel.Panel, error) {
		prices, err := h.SharePrices(ctx, "daily")
		if err != nil {
			return nil, err
		}
		shares, err := h.Income(ctx, "ttm")
		if err != nil {
			return nil, err
		}
		return signals.Volume(prices, shares, signals.VolumeOptions{
			Window:       opts.Window,
			SharesColumn: opts.SharesColumn,
			Offset:       h.offset,
			FillMethod:   h.fill,
		})
	})
}

// FinSignals computes financial ratios from the trailing-twelve-month
// statements. Variant picks the output grid: daily and latest reindex the
// signals onto that share-price grid, quarterly leaves them on the report
// dates. A transform is applied per entity before any reindexing.
func (h *Hub) FinSignals(ctx context.Context, variant string, tr *Transform) (*panel.Panel, error) {
	name, fn := transformParts(tr)
	key := h.key("fin-signals", variant, name)
	sources := h.sourcePaths(h.signalSpecs(variant, "ttm")...)
	return h.run(ctx, key, h.store, sources, func(ctx context.Context) (*panel.Panel, error) {
		prices, err := h.signalPrices(ctx, variant)
		if err != nil {
			return nil, err
		}
		income, balance, cashflow, err := h.statements(ctx, "ttm")
		if err != nil {
			return nil, err
		}
		return signals.Financial(income, balance, cashflow, signals.FinancialOptions{
			Prices:     prices,
			Offset:     h.offset,
			Func:       fn,
			FillMethod: h.fill,
		})
	})
}

// GrowthSignals computes year-over-year growth rates from the
// trailing-twelve-month and quarterly statements. Variant picks the output
// grid the same way it does for FinSignals.
func (h *Hub) GrowthSignals(ctx context.Context, variant string, tr *Transform) (*panel.Panel, error) {
	name, fn := transformParts(tr)
	key := h.key("growth-signals", variant, name)
	specs := append(h.signalSpecs(variant, "ttm"), h.statementSpecs("quarterly")...)
	sources := h.sourcePaths(specs...)
	return h.run(ctx, key, h.store, sources, func(ctx context.Context) (*panel.Panel, error) {
		prices, err := h.signalPrices(ctx, variant)
		if err != nil {
			return nil, err
		}
		incomeTTM, balanceTTM, cashflowTTM, err := h.statements(ctx, "ttm")
		if err != nil {
			return nil, err
		}
		incomeQ, balanceQ, cashflowQ, err := h.statements(ctx, "quarterly")
		if err != nil {
			return nil, err
		}
		return signals.Growth(incomeTTM, incomeQ, balanceTTM, balanceQ, cashflowTTM, cashflowQ, signals.GrowthOptions{
			Prices:     prices,
			Offset:     h.offset,
			Func:       fn,
			FillMethod: h.fill,
		})
	})
}

// ValSignals computes valuation ratios such as P/E and P/Sales by combining
// share prices with the trailing-twelve-month statements. Variant must be
// daily or latest since the price is the numerator of every ratio.
// SharesColumn picks the share count for the per-share figures; empty means
// diluted shares.
func (h *Hub) ValSignals(ctx context.Context, variant string, tr *Transform, sharesColumn string) (*panel.Panel, error) {
	if variant != "daily" && variant != "latest" {
		return nil, errs.InvalidArgumentf("valuation variant must be daily or latest, got %q", variant)
	}
	name, fn := transformParts(tr)
	key := h.key("val-signals", variant, name, sharesColumn)
	sources := h.sourcePaths(h.signalSpecs(variant, "ttm")...)
	return h.run(ctx, key, h.store, sources, func(ctx context.Context) (*panel.Panel, error) {
		prices, err := h.SharePrices(ctx, variant)
		if err != nil {
			return nil, err
		}
		income, balance, cashflow, err := h.statements(ctx, "ttm")
		if err != nil {
			return nil, err
		}
		return signals.Valuation(prices, income, balance, cashflow, signals.ValuationOptions{
			Offset:       h.offset,
			Func:         fn,
			FillMethod:   h.fill,
			SharesColumn: sharesColumn,
		})
	})
}

// statements loads all three statement families in one variant.
func (h *Hub) statements(ctx context.Context, variant string) (income, balance, cashflow *panel.Panel, err error) {
	if income, err = h.Income(ctx, variant); err != nil {
		return nil, nil, nil, err
	}
	if balance, err = h.Balance(ctx, variant); err != nil {
		return nil, nil, nil, err
	}
	if cashflow, err = h.CashFlow(ctx, variant); err != nil {
		return nil, nil, nil, err
	}
	return income, balance, cashflow, nil
}

func (h *Hub) statementSpecs(variant string) []bulk.Spec {
	return []bulk.Spec{
		h.statementSpec("income", variant),
		h.statementSpec("balance", variant),
		h.statementSpec("cashflow", variant),
	}
}

// signalSpecs lists the dataset files a signal method depends on: the three
// statements plus the share prices when the variant reindexes onto them.
func (h *Hub) signalSpecs(variant, statementVariant string) []bulk.Spec {
	specs := h.statementSpecs(statementVariant)
	if variant == "daily" || variant == "latest" {
		specs = append(specs, h.pricesSpec(variant))
	}
	return specs
}
