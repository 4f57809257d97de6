package signals

import (
	"github.com/bulkfin/bulkfin-go/pkg/align"
	"github.com/bulkfin/bulkfin-go/pkg/change"
	"github.com/bulkfin/bulkfin-go/pkg/derived"
	"github.com/bulkfin/bulkfin-go/pkg/freq"
	"github.com/bulkfin/bulkfin-go/pkg/names"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// GrowthOptions controls the growth-rate signal assembler.
type GrowthOptions struct {
	// Prices, when set, reindexes the signals onto its daily grid.
	// Otherwise the signals stay on the report dates.
	Prices *panel.Panel

	// Offset shifts the signal dates by a publish lag. Unlike the ratio
	// assemblers this happens after the growth-rates are computed, since a
	// shifted date axis would break the quarter arithmetic.
	Offset freq.Duration

	// Func runs per entity after the growth-rates are computed but before
	// they are reindexed.
	Func panel.Func

	// FillMethod fills signal values between report dates when reindexing.
	// The zero value forward-fills.
	FillMethod align.Method
}

// Growth computes growth-rate signals for sales, earnings, free cash flow
// and total assets. Each measure gets three variants: the plain name is the
// one-year growth of trailing-twelve-month data, YOY is the one-year growth
// of quarterly data, and QOQ is the quarter-over-quarter growth of
// quarterly data.
func Growth(incomeTTM, incomeQ, balanceTTM, balanceQ, cashflowTTM, cashflowQ *panel.Panel, opts GrowthOptions) (*panel.Panel, error) {
	ttm, err := growthInputs(incomeTTM, balanceTTM, cashflowTTM)
	if err != nil {
		return nil, err
	}
	qrt, err := growthInputs(incomeQ, balanceQ, cashflowQ)
	if err != nil {
		return nil, err
	}

	annual, err := change.Relative(ttm, change.RelativeOptions{
		Freq:   freq.Quarter,
		Offset: freq.Duration{Quarters: 4},
		Rename: map[string]string{
			names.Revenue:     names.SalesGrowth,
			names.NetIncome:   names.EarningsGrowth,
			names.FCF:         names.FCFGrowth,
			names.TotalAssets: names.AssetsGrowth,
		},
	})
	if err != nil {
		return nil, err
	}
	yoy, err := change.Relative(qrt, change.RelativeOptions{
		Freq:   freq.Quarter,
		Offset: freq.Duration{Quarters: 4},
		Rename: map[string]string{
			names.Revenue:     names.SalesGrowthYOY,
			names.NetIncome:   names.EarningsGrowthYOY,
			names.FCF:         names.FCFGrowthYOY,
			names.TotalAssets: names.AssetsGrowthYOY,
		},
	})
	if err != nil {
		return nil, err
	}
	qoq, err := change.Relative(qrt, change.RelativeOptions{
		Freq:   freq.Quarter,
		Offset: freq.Duration{Quarters: 1},
		Rename: map[string]string{
			names.Revenue:     names.SalesGrowthQOQ,
			names.NetIncome:   names.EarningsGrowthQOQ,
			names.FCF:         names.FCFGrowthQOQ,
			names.TotalAssets: names.AssetsGrowthQOQ,
		},
	})
	if err != nil {
		return nil, err
	}

	sig, err := panel.Join(annual, yoy, qoq)
	if err != nil {
		return nil, err
	}
	sig, err = shiftIfSet(sig, opts.Offset)
	if err != nil {
		return nil, err
	}
	sig = applyIfSet(sig, opts.Func)
	if opts.Prices != nil {
		sig, err = onPriceDates(sig, opts.Prices, opts.FillMethod)
		if err != nil {
			return nil, err
		}
	}
	return sig.SortColumns(), nil
}

// growthInputs joins revenue, net income, free cash flow and total assets
// from one set of statements.
func growthInputs(income, balance, cashflow *panel.Panel) (*panel.Panel, error) {
	inc, err := income.Select(names.Revenue, names.NetIncome)
	if err != nil {
		return nil, err
	}
	fcf, err := derived.FreeCashFlow(cashflow)
	if err != nil {
		return nil, err
	}
	bal, err := balance.Select(names.TotalAssets)
	if err != nil {
		return nil, err
	}
	return panel.Join(inc, fcf, bal)
}
