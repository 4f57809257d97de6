// Package testutil builds small but fully-populated fixture panels for
// tests: quarterly statements carrying every column the signal assemblers
// read, and daily share prices to reindex them onto. Values scale with a
// per-ticker multiplier so no two tickers ever share a value.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bulkfin/bulkfin-go/pkg/names"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// Quarters is how many report dates the statement fixtures carry. Eight
// quarters give the year-over-year growth signals four rows of history.
const Quarters = 8

// QuarterEnds returns n quarter-end report dates starting 2019-03-31.
func QuarterEnds(n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = panel.Date(2019, time.Month(3*i+4), 0)
	}
	return dates
}

// Days returns n consecutive calendar days starting at the given date.
func Days(start time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

// PriceStart is the first date of the price fixtures. It sits inside the
// statement history so forward-filled fundamentals cover every price date.
var PriceStart = panel.Date(2020, 6, 1)

// PriceDays is how many daily rows the price fixtures carry.
const PriceDays = 45

func column(name string, n int, value func(i int) float64) panel.Column {
	values := make([]float64, n)
	for i := range values {
		values[i] = value(i)
	}
	return panel.Column{Name: name, Values: values}
}

// IncomeFrame builds one ticker's quarterly income statements scaled by m.
func IncomeFrame(t *testing.T, m float64) panel.Frame {
	t.Helper()
	dates := QuarterEnds(Quarters)
	f, err := panel.NewFrame(dates,
		column(names.Revenue, Quarters, func(q int) float64 { return m * (100 + 10*float64(q)) }),
		column(names.GrossProfit, Quarters, func(q int) float64 { return m * (40 + 4*float64(q)) }),
		column(names.OperatingIncome, Quarters, func(q int) float64 { return m * (20 + 2*float64(q)) }),
		column(names.InterestExpNet, Quarters, func(int) float64 { return -m }),
		column(names.NetIncome, Quarters, func(q int) float64 { return m * (10 + float64(q)) }),
		column(names.NetIncomeCommon, Quarters, func(q int) float64 { return m * (10 + float64(q)) }),
		column(names.ResearchDev, Quarters, func(int) float64 { return -2 * m }),
		column(names.SharesBasic, Quarters, func(int) float64 { return 1000 * m }),
		column(names.SharesDiluted, Quarters, func(int) float64 { return 1100 * m }),
	)
	require.NoError(t, err)
	return f
}

// BalanceFrame builds one ticker's quarterly balance sheets scaled by m.
func BalanceFrame(t *testing.T, m float64) panel.Frame {
	t.Helper()
	dates := QuarterEnds(Quarters)
	f, err := panel.NewFrame(dates,
		column(names.TotalAssets, Quarters, func(q int) float64 { return m * (1000 + 10*float64(q)) }),
		column(names.TotalCurAssets, Quarters, func(q int) float64 { return m * (300 + float64(q)) }),
		column(names.TotalCurLiab, Quarters, func(q int) float64 { return m * (100 + float64(q)) }),
		column(names.TotalEquity, Quarters, func(q int) float64 { return m * (500 + float64(q)) }),
		column(names.TotalLiabilities, Quarters, func(q int) float64 { return m * (400 + float64(q)) }),
		column(names.StDebt, Quarters, func(int) float64 { return 20 * m }),
		column(names.LtDebt, Quarters, func(int) float64 { return 80 * m }),
		column(names.Inventories, Quarters, func(int) float64 { return 30 * m }),
		column(names.CashEquivStInvest, Quarters, func(int) float64 { return 50 * m }),
		column(names.AccNotesRecv, Quarters, func(int) float64 { return 40 * m }),
	)
	require.NoError(t, err)
	return f
}

// CashFlowFrame builds one ticker's quarterly cash-flow statements scaled
// by m.
func CashFlowFrame(t *testing.T, m float64) panel.Frame {
	t.Helper()
	dates := QuarterEnds(Quarters)
	f, err := panel.NewFrame(dates,
		column(names.NetCashOps, Quarters, func(q int) float64 { return m * (50 + float64(q)) }),
		column(names.Capex, Quarters, func(int) float64 { return -10 * m }),
		column(names.DeprAmor, Quarters, func(int) float64 { return 8 * m }),
		column(names.DividendsPaid, Quarters, func(int) float64 { return -5 * m }),
		column(names.CashRepurchaseEquity, Quarters, func(int) float64 { return -3 * m }),
		column(names.NetCashAcqDivest, Quarters, func(int) float64 { return -2 * m }),
	)
	require.NoError(t, err)
	return f
}

// PriceFrame builds one ticker's daily share prices scaled by m.
func PriceFrame(t *testing.T, m float64) panel.Frame {
	t.Helper()
	dates := Days(PriceStart, PriceDays)
	f, err := panel.NewFrame(dates,
		column(names.Close, PriceDays, func(i int) float64 { return 10*m + 0.5*float64(i) }),
		column(names.AdjClose, PriceDays, func(i int) float64 { return 0.9 * (10*m + 0.5*float64(i)) }),
		column(names.Volume, PriceDays, func(i int) float64 { return 1e6 + 1e4*float64(i) }),
	)
	require.NoError(t, err)
	return f
}

func grouped(t *testing.T, frame func(*testing.T, float64) panel.Frame, tickers []string) *panel.Panel {
	t.Helper()
	groups := make([]panel.Group, len(tickers))
	for i, ticker := range tickers {
		groups[i] = panel.Group{ID: ticker, Frame: frame(t, float64(i+1))}
	}
	p, err := panel.New(names.Ticker, groups...)
	require.NoError(t, err)
	return p
}

// Statements builds grouped income, balance and cash-flow panels for the
// given tickers. The multiplier follows the order tickers are passed in.
func Statements(t *testing.T, tickers ...string) (income, balance, cashflow *panel.Panel) {
	t.Helper()
	return grouped(t, IncomeFrame, tickers),
		grouped(t, BalanceFrame, tickers),
		grouped(t, CashFlowFrame, tickers)
}

// DailyPrices builds a grouped daily share-price panel for the given
// tickers.
func DailyPrices(t *testing.T, tickers ...string) *panel.Panel {
	t.Helper()
	return grouped(t, PriceFrame, tickers)
}

// LatestPrices builds a share-price panel holding only the most recent row
// per ticker, the shape of the latest bulk variant.
func LatestPrices(t *testing.T, tickers ...string) *panel.Panel {
	t.Helper()
	groups := make([]panel.Group, len(tickers))
	for i, ticker := range tickers {
		full := PriceFrame(t, float64(i+1))
		dates := full.Dates()
		cols := make([]panel.Column, 0, 3)
		for _, name := range full.Columns() {
			v, _ := full.Values(name)
			cols = append(cols, panel.Column{Name: name, Values: v[len(v)-1:]})
		}
		last, err := panel.NewFrame(dates[len(dates)-1:], cols...)
		require.NoError(t, err)
		groups[i] = panel.Group{ID: ticker, Frame: last}
	}
	p, err := panel.New(names.Ticker, groups...)
	require.NoError(t, err)
	return p
}
