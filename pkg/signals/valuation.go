package signals

import (
	"github.com/bulkfin/bulkfin-go/internal/floats"
	"github.com/bulkfin/bulkfin-go/pkg/align"
	"github.com/bulkfin/bulkfin-go/pkg/derived"
	"github.com/bulkfin/bulkfin-go/pkg/freq"
	"github.com/bulkfin/bulkfin-go/pkg/names"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// ValuationOptions controls the valuation signal assembler.
type ValuationOptions struct {
	// Offset shifts report dates by a publish lag before anything else.
	Offset freq.Duration

	// Func runs per entity on the fundamental data before it is turned
	// into per-share numbers, e.g. to average earnings over several years.
	// The share-count used for the per-share division is snapshotted
	// before Func runs, so a Func that rewrites the share columns cannot
	// skew the division.
	Func panel.Func

	// FillMethod fills fundamentals between report dates when spreading
	// them onto the price grid. The zero value forward-fills.
	FillMethod align.Method

	// SharesColumn picks the share-count for per-share numbers. It must
	// be names.SharesBasic or names.SharesDiluted; empty means diluted.
	SharesColumn string
}

// Valuation computes valuation signals on the price grid: price over sales,
// earnings, free cash flow, book value, liquidation values and cash, the
// earnings, FCF and dividend yields, and market capitalization. Fundamental
// data is converted to per-share numbers on report dates, spread onto the
// price grid, and divided into the closing price.
func Valuation(prices, income, balance, cashflow *panel.Panel, opts ValuationOptions) (*panel.Panel, error) {
	if err := prices.Require(names.Close); err != nil {
		return nil, err
	}
	sharesCol := opts.SharesColumn
	if sharesCol == "" {
		sharesCol = names.SharesDiluted
	}

	inc, err := income.Select(names.Revenue, names.NetIncomeCommon,
		names.SharesBasic, names.SharesDiluted)
	if err != nil {
		return nil, err
	}
	bal, err := balance.Select(names.TotalCurAssets, names.CashEquivStInvest,
		names.AccNotesRecv, names.Inventories, names.TotalLiabilities, names.TotalEquity)
	if err != nil {
		return nil, err
	}
	cf, err := cashflow.Select(names.DividendsPaid)
	if err != nil {
		return nil, err
	}
	fcf, err := derived.FreeCashFlow(cashflow)
	if err != nil {
		return nil, err
	}
	ncav, err := derived.NetCurrentAssetValue(balance)
	if err != nil {
		return nil, err
	}
	netnet, err := derived.NetNetWorkingCapital(balance)
	if err != nil {
		return nil, err
	}
	df, err := panel.Join(inc, bal, cf, fcf, ncav, netnet)
	if err != nil {
		return nil, err
	}
	df, err = shiftIfSet(df, opts.Offset)
	if err != nil {
		return nil, err
	}

	// Snapshot the share-count before the user function runs.
	shareCounts, err := derived.Shares(df, sharesCol)
	if err != nil {
		return nil, err
	}
	sharesDaily, err := onPriceDates(shareCounts, prices, opts.FillMethod)
	if err != nil {
		return nil, err
	}

	df = applyIfSet(df, opts.Func)
	perShare := divideByShares(df, shareCounts, sharesCol)
	daily, err := onPriceDates(perShare, prices, opts.FillMethod)
	if err != nil {
		return nil, err
	}

	out := make([]panel.Group, 0, len(prices.Groups()))
	for _, g := range prices.Groups() {
		price, _ := g.Values(names.Close)
		fundamentals, _ := daily.Group(g.ID)
		countFrame, _ := sharesDaily.Group(g.ID)
		counts, _ := countFrame.Values(sharesCol)

		perShareOf := func(name string) []float64 {
			v, _ := fundamentals.Values(name)
			return v
		}
		out = append(out, panel.Group{ID: g.ID, Frame: panel.FrameOf(g.Dates(),
			panel.Column{Name: names.PSales, Values: floats.Div(price, perShareOf(names.Revenue))},
			panel.Column{Name: names.PE, Values: floats.Div(price, perShareOf(names.NetIncomeCommon))},
			panel.Column{Name: names.PFCF, Values: floats.Div(price, perShareOf(names.FCF))},
			panel.Column{Name: names.PBook, Values: floats.Div(price, perShareOf(names.TotalEquity))},
			panel.Column{Name: names.PNCAV, Values: floats.Div(price, perShareOf(names.NCAV))},
			panel.Column{Name: names.PNetNet, Values: floats.Div(price, perShareOf(names.NetNet))},
			panel.Column{Name: names.PCash, Values: floats.Div(price, perShareOf(names.CashEquivStInvest))},
			panel.Column{Name: names.EarningsYield, Values: floats.Div(perShareOf(names.NetIncomeCommon), price)},
			panel.Column{Name: names.FCFYield, Values: floats.Div(perShareOf(names.FCF), price)},
			panel.Column{Name: names.DivYield, Values: floats.Div(floats.Neg(perShareOf(names.DividendsPaid)), price)},
			panel.Column{Name: names.MarketCap, Values: mul(counts, price)},
		)})
	}
	result, err := panel.New(prices.EntityKey(), out...)
	if err != nil {
		return nil, err
	}
	return result.SortColumns(), nil
}

// divideByShares divides every column of p by the share-count, aligned by
// date. Rows the user function may have introduced that have no share-count
// come out as NaN.
func divideByShares(p, shareCounts *panel.Panel, sharesCol string) *panel.Panel {
	groups := make([]panel.Group, 0, len(p.Groups()))
	for _, g := range p.Groups() {
		countFrame, ok := shareCounts.Group(g.ID)
		var counts []float64
		if ok {
			aligned, _ := countFrame.OnGrid(g.Dates()).Values(sharesCol)
			counts = aligned
		} else {
			counts = floats.NaNs(g.Len())
		}
		cols := make([]panel.Column, 0, len(g.Columns()))
		for _, name := range g.Columns() {
			v, _ := g.Values(name)
			cols = append(cols, panel.Column{Name: name, Values: floats.Div(v, counts)})
		}
		groups = append(groups, panel.Group{ID: g.ID, Frame: panel.FrameOf(g.Dates(), cols...)})
	}
	out, _ := panel.New(p.EntityKey(), groups...)
	return out
}

func mul(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i, x := range a {
		out[i] = x * b[i]
	}
	return out
}
