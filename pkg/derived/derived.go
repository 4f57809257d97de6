// Package derived computes standard derived metrics from raw financial
// statement columns: EBITDA, Free Cash Flow, liquidation-value estimates and
// a share-count fallback. Each function reads named columns, does row-wise
// arithmetic and returns a single-column panel that joins cleanly back onto
// the inputs. No time axis is involved, so no entity isolation is needed.
package derived

import (
	"math"

	"github.com/bulkfin/bulkfin-go/internal/floats"
	"github.com/bulkfin/bulkfin-go/pkg/errs"
	"github.com/bulkfin/bulkfin-go/pkg/names"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// EBITDAFormula selects how EBITDA is calculated.
type EBITDAFormula int

const (
	// EBITDANetIncome starts from Net Income and adds back interest, taxes,
	// depreciation and amortization.
	EBITDANetIncome EBITDAFormula = iota
	// EBITDAOpIncome starts from Operating Income and adds back
	// depreciation and amortization.
	EBITDAOpIncome
)

// EBITDA returns earnings before interest, taxes, depreciation and
// amortization, joined row-wise from the income statement and cash-flow
// panels. Interest expense and income tax are stored as negative values, so
// adding them back means subtracting the stored columns. Missing inputs
// count as zero.
func EBITDA(income, cashflow *panel.Panel, formula EBITDAFormula) (*panel.Panel, error) {
	if err := cashflow.Require(names.DeprAmor); err != nil {
		return nil, err
	}
	switch formula {
	case EBITDAOpIncome:
		if err := income.Require(names.OperatingIncome); err != nil {
			return nil, err
		}
		inc, _ := income.Select(names.OperatingIncome)
		cf, _ := cashflow.Select(names.DeprAmor)
		joined, err := panel.Join(inc, cf)
		if err != nil {
			return nil, err
		}
		return compute(joined, names.EBITDA, func(f panel.Frame, i int) float64 {
			opInc, _ := f.Values(names.OperatingIncome)
			da, _ := f.Values(names.DeprAmor)
			return nz(opInc[i]) + nz(da[i])
		}), nil
	case EBITDANetIncome:
		if err := income.Require(names.NetIncome, names.InterestExpNet, names.IncomeTax); err != nil {
			return nil, err
		}
		inc, _ := income.Select(names.NetIncome, names.InterestExpNet, names.IncomeTax)
		cf, _ := cashflow.Select(names.DeprAmor)
		joined, err := panel.Join(inc, cf)
		if err != nil {
			return nil, err
		}
		return compute(joined, names.EBITDA, func(f panel.Frame, i int) float64 {
			ni, _ := f.Values(names.NetIncome)
			interest, _ := f.Values(names.InterestExpNet)
			tax, _ := f.Values(names.IncomeTax)
			da, _ := f.Values(names.DeprAmor)
			return nz(ni[i]) - nz(interest[i]) - nz(tax[i]) + nz(da[i])
		}), nil
	}
	return nil, errs.InvalidArgumentf("unknown EBITDA formula %d", formula)
}

// FreeCashFlow returns net cash from operations with capital expenditures
// netted out. Capex is stored as disposals minus acquisitions, a negative
// value for a growing company, so it is added rather than subtracted.
// Missing inputs count as zero.
func FreeCashFlow(cashflow *panel.Panel) (*panel.Panel, error) {
	if err := cashflow.Require(names.NetCashOps, names.Capex); err != nil {
		return nil, err
	}
	return compute(cashflow, names.FCF, func(f panel.Frame, i int) float64 {
		ops, _ := f.Values(names.NetCashOps)
		capex, _ := f.Values(names.Capex)
		return nz(ops[i]) + nz(capex[i])
	}), nil
}

// NetCurrentAssetValue returns the conservative liquidation value that
// counts only current assets, minus total liabilities. Missing inputs
// propagate as NaN.
func NetCurrentAssetValue(balance *panel.Panel) (*panel.Panel, error) {
	if err := balance.Require(names.TotalCurAssets, names.TotalLiabilities); err != nil {
		return nil, err
	}
	return compute(balance, names.NCAV, func(f panel.Frame, i int) float64 {
		cur, _ := f.Values(names.TotalCurAssets)
		liab, _ := f.Values(names.TotalLiabilities)
		return cur[i] - liab[i]
	}), nil
}

// NetNetWorkingCapital returns an even more conservative liquidation value:
// cash at 100%, receivables at 75%, inventories at 50%, minus total
// liabilities. Missing asset inputs count as zero; missing liabilities
// propagate as NaN.
func NetNetWorkingCapital(balance *panel.Panel) (*panel.Panel, error) {
	if err := balance.Require(names.CashEquivStInvest, names.AccNotesRecv, names.Inventories, names.TotalLiabilities); err != nil {
		return nil, err
	}
	return compute(balance, names.NetNet, func(f panel.Frame, i int) float64 {
		cash, _ := f.Values(names.CashEquivStInvest)
		recv, _ := f.Values(names.AccNotesRecv)
		inv, _ := f.Values(names.Inventories)
		liab, _ := f.Values(names.TotalLiabilities)
		return nz(cash[i]) + 0.75*nz(recv[i]) + 0.5*nz(inv[i]) - liab[i]
	}), nil
}

// Shares returns the preferred share-count column with missing values
// substituted from the other share-count column. preferred must be either
// names.SharesBasic or names.SharesDiluted; the output column keeps the
// preferred name.
func Shares(p *panel.Panel, preferred string) (*panel.Panel, error) {
	var other string
	switch preferred {
	case names.SharesBasic:
		other = names.SharesDiluted
	case names.SharesDiluted:
		other = names.SharesBasic
	default:
		return nil, errs.InvalidArgumentf("share-count column %q", preferred)
	}
	if err := p.Require(preferred, other); err != nil {
		return nil, err
	}
	return p.Apply(func(f panel.Frame) panel.Frame {
		prefer, _ := f.Values(preferred)
		fallback, _ := f.Values(other)
		return panel.FrameOf(f.Dates(), panel.Column{Name: preferred, Values: floats.Coalesce(prefer, fallback)})
	}), nil
}

// compute maps a row function over a panel into a single named column.
func compute(p *panel.Panel, name string, fn func(panel.Frame, int) float64) *panel.Panel {
	return p.Apply(func(f panel.Frame) panel.Frame {
		out := make([]float64, f.Len())
		for i := range out {
			out[i] = fn(f, i)
		}
		return panel.FrameOf(f.Dates(), panel.Column{Name: name, Values: out})
	})
}

func nz(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}
