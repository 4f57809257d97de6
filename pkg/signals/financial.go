package signals

import (
	"github.com/bulkfin/bulkfin-go/internal/floats"
	"github.com/bulkfin/bulkfin-go/pkg/align"
	"github.com/bulkfin/bulkfin-go/pkg/derived"
	"github.com/bulkfin/bulkfin-go/pkg/freq"
	"github.com/bulkfin/bulkfin-go/pkg/names"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// FinancialOptions controls the financial-ratio signal assembler.
type FinancialOptions struct {
	// Prices, when set, reindexes the signals onto its daily grid.
	// Otherwise the signals stay on the report dates.
	Prices *panel.Panel

	// Offset shifts report dates by a publish lag before anything else.
	Offset freq.Duration

	// Func runs per entity after the ratios are computed but before they
	// are reindexed, e.g. to take multi-year averages.
	Func panel.Func

	// FillMethod fills signal values between report dates when reindexing.
	// The zero value forward-fills.
	FillMethod align.Method
}

// Financial computes financial-ratio signals such as net profit margin,
// current ratio, ROA and payout ratio from trailing-twelve-month statement
// data. Statement items that are reported as negative cash flows, such as
// R&D, interest expense, dividends and capex, are negated so the ratios
// come out positive for ordinary firms.
func Financial(income, balance, cashflow *panel.Panel, opts FinancialOptions) (*panel.Panel, error) {
	inc, err := income.Select(names.Revenue, names.GrossProfit, names.OperatingIncome,
		names.InterestExpNet, names.NetIncome, names.ResearchDev)
	if err != nil {
		return nil, err
	}
	bal, err := balance.Select(names.TotalAssets, names.TotalCurAssets, names.TotalCurLiab,
		names.TotalEquity, names.StDebt, names.LtDebt, names.Inventories,
		names.CashEquivStInvest, names.AccNotesRecv)
	if err != nil {
		return nil, err
	}
	cf, err := cashflow.Select(names.DividendsPaid, names.CashRepurchaseEquity,
		names.NetCashAcqDivest, names.Capex, names.DeprAmor)
	if err != nil {
		return nil, err
	}
	fcf, err := derived.FreeCashFlow(cashflow)
	if err != nil {
		return nil, err
	}
	df, err := panel.Join(inc, bal, cf, fcf)
	if err != nil {
		return nil, err
	}
	df, err = shiftIfSet(df, opts.Offset)
	if err != nil {
		return nil, err
	}

	sig := df.Apply(financialRatios)
	sig = applyIfSet(sig, opts.Func)
	if opts.Prices != nil {
		sig, err = onPriceDates(sig, opts.Prices, opts.FillMethod)
		if err != nil {
			return nil, err
		}
	}
	return sig.SortColumns(), nil
}

func financialRatios(f panel.Frame) panel.Frame {
	revenue := series(f, names.Revenue)
	grossProfit := series(f, names.GrossProfit)
	operatingIncome := series(f, names.OperatingIncome)
	interestExpNet := series(f, names.InterestExpNet)
	netIncome := series(f, names.NetIncome)
	researchDev := series(f, names.ResearchDev)

	totalAssets := series(f, names.TotalAssets)
	totalCurAssets := series(f, names.TotalCurAssets)
	totalCurLiab := series(f, names.TotalCurLiab)
	totalEquity := series(f, names.TotalEquity)
	stDebt := series(f, names.StDebt)
	ltDebt := series(f, names.LtDebt)
	inventories := series(f, names.Inventories)
	cashEquiv := series(f, names.CashEquivStInvest)
	receivables := series(f, names.AccNotesRecv)

	dividends := series(f, names.DividendsPaid)
	repurchase := series(f, names.CashRepurchaseEquity)
	acqDivest := series(f, names.NetCashAcqDivest)
	capex := series(f, names.Capex)
	deprAmor := series(f, names.DeprAmor)
	fcf := series(f, names.FCF)

	return panel.FrameOf(f.Dates(),
		panel.Column{Name: names.NetProfitMargin, Values: floats.Div(netIncome, revenue)},
		panel.Column{Name: names.GrossProfitMargin, Values: floats.Div(grossProfit, revenue)},
		panel.Column{Name: names.RDRevenue, Values: floats.Div(floats.Neg(researchDev), revenue)},
		panel.Column{Name: names.RDGrossProfit, Values: floats.Div(floats.Neg(researchDev), grossProfit)},
		panel.Column{Name: names.RORC, Values: floats.Div(grossProfit, floats.Neg(researchDev))},
		panel.Column{Name: names.InterestCov, Values: floats.Div(operatingIncome, floats.Neg(interestExpNet))},
		panel.Column{Name: names.CurrentRatio, Values: floats.Div(totalCurAssets, totalCurLiab)},
		panel.Column{Name: names.QuickRatio, Values: floats.Div(floats.Add(cashEquiv, floats.Nz(receivables)), totalCurLiab)},
		panel.Column{Name: names.DebtRatio, Values: floats.Div(floats.Add(stDebt, ltDebt), totalAssets)},
		panel.Column{Name: names.ROA, Values: floats.Div(netIncome, totalAssets)},
		panel.Column{Name: names.ROE, Values: floats.Div(netIncome, totalEquity)},
		panel.Column{Name: names.AssetTurnover, Values: floats.Div(revenue, totalAssets)},
		panel.Column{Name: names.InventoryTurnover, Values: floats.Div(revenue, inventories)},
		panel.Column{Name: names.PayoutRatio, Values: floats.Div(floats.Neg(floats.Nz(dividends)), fcf)},
		panel.Column{Name: names.BuybackRatio, Values: floats.Div(floats.Neg(floats.Nz(repurchase)), fcf)},
		panel.Column{Name: names.PayoutBuybackRatio, Values: floats.Div(floats.Neg(floats.Add(floats.Nz(dividends), floats.Nz(repurchase))), fcf)},
		panel.Column{Name: names.AcqAssetsRatio, Values: floats.Div(floats.Neg(acqDivest), totalAssets)},
		panel.Column{Name: names.CapexDeprRatio, Values: floats.Div(floats.Neg(capex), deprAmor)},
		panel.Column{Name: names.LogRevenue, Values: floats.Log10(revenue)},
	)
}
