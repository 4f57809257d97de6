package hub

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkfin/bulkfin-go/internal/testutil"
	"github.com/bulkfin/bulkfin-go/pkg/bulk"
	"github.com/bulkfin/bulkfin-go/pkg/cache"
	"github.com/bulkfin/bulkfin-go/pkg/config"
	"github.com/bulkfin/bulkfin-go/pkg/errs"
	"github.com/bulkfin/bulkfin-go/pkg/freq"
	"github.com/bulkfin/bulkfin-go/pkg/names"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// fakeLoader serves fixture panels keyed by dataset and variant, counting
// loads per key so tests can assert on memoization.
type fakeLoader struct {
	mu     sync.Mutex
	panels map[string]*panel.Panel
	tables map[string]*bulk.Table
	loads  map[string]int
	dir    string
}

func datasetKey(dataset, variant string) string {
	if variant == "" {
		return dataset
	}
	return dataset + "-" + variant
}

func newFakeLoader(t *testing.T, tickers ...string) *fakeLoader {
	t.Helper()
	income, balance, cashflow := testutil.Statements(t, tickers...)
	companies := &bulk.Table{Columns: []string{"Ticker", "Company Name"}}
	for _, ticker := range tickers {
		companies.Rows = append(companies.Rows, []string{ticker, ticker + " Inc."})
	}
	return &fakeLoader{
		panels: map[string]*panel.Panel{
			"income-ttm":         income,
			"income-quarterly":   income,
			"balance-ttm":        balance,
			"balance-quarterly":  balance,
			"cashflow-ttm":       cashflow,
			"cashflow-quarterly": cashflow,
			"shareprices-daily":  testutil.DailyPrices(t, tickers...),
			"shareprices-latest": testutil.LatestPrices(t, tickers...),
		},
		tables: map[string]*bulk.Table{"companies": companies},
		loads:  make(map[string]int),
		dir:    t.TempDir(),
	}
}

func (l *fakeLoader) Load(_ context.Context, dataset, variant, _ string) (*panel.Panel, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := datasetKey(dataset, variant)
	l.loads[key]++
	p, ok := l.panels[key]
	if !ok {
		return nil, fmt.Errorf("no fixture for dataset %s", key)
	}
	return p, nil
}

func (l *fakeLoader) LoadTable(_ context.Context, dataset, variant, _ string) (*bulk.Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := datasetKey(dataset, variant)
	l.loads[key]++
	tbl, ok := l.tables[key]
	if !ok {
		return nil, fmt.Errorf("no fixture for dataset %s", key)
	}
	return tbl, nil
}

func (l *fakeLoader) Path(dataset, variant, _ string) (string, error) {
	return filepath.Join(l.dir, datasetKey(dataset, variant)+".csv"), nil
}

func (l *fakeLoader) loadCount(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads[key]
}

// touch creates the fake dataset files so staleness checks find sources.
func (l *fakeLoader) touch(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		path := filepath.Join(l.dir, key+".csv")
		require.NoError(t, os.WriteFile(path, []byte("fixture"), 0o644))
	}
}

func newTestHub(t *testing.T, loader Loader, opts ...Option) *Hub {
	t.Helper()
	h, err := New(config.Default(), loader, opts...)
	require.NoError(t, err)
	return h
}

func TestNew_RejectsUnknownFillMethod(t *testing.T) {
	cfg := config.Default()
	cfg.Hub.FillMethod = "cubic"
	_, err := New(cfg, newFakeLoader(t, "AAPL"))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	h, err := New(nil, newFakeLoader(t, "AAPL"))
	require.NoError(t, err)
	assert.Equal(t, "us", h.market)
	assert.Nil(t, h.store)
}

func TestHub_SharePricesMemoized(t *testing.T) {
	loader := newFakeLoader(t, "AAPL", "MSFT")
	h := newTestHub(t, loader)
	ctx := context.Background()

	first, err := h.SharePrices(ctx, "daily")
	require.NoError(t, err)
	second, err := h.SharePrices(ctx, "daily")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, loader.loadCount("shareprices-daily"))
}

func TestHub_SharePricesVariants(t *testing.T) {
	loader := newFakeLoader(t, "AAPL", "MSFT")
	h := newTestHub(t, loader)
	ctx := context.Background()

	latest, err := h.SharePrices(ctx, "latest")
	require.NoError(t, err)
	for _, g := range latest.Groups() {
		assert.Equal(t, 1, g.Len())
	}

	_, err = h.SharePrices(ctx, "weekly")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestHub_TickerWatchlistCutsPanels(t *testing.T) {
	loader := newFakeLoader(t, "AAPL", "MSFT")
	h := newTestHub(t, loader, WithTickers("MSFT"))

	p, err := h.SharePrices(context.Background(), "daily")
	require.NoError(t, err)
	require.Len(t, p.Groups(), 1)
	assert.Equal(t, "MSFT", p.Groups()[0].ID)

	// The cut panel carries the same values the full panel had for MSFT.
	full := testutil.DailyPrices(t, "AAPL", "MSFT")
	want, ok := full.Group("MSFT")
	require.True(t, ok)
	got, ok := p.Group("MSFT")
	require.True(t, ok)
	wantClose, _ := want.Values(names.Close)
	gotClose, _ := got.Values(names.Close)
	assert.Equal(t, wantClose, gotClose)
}

func TestHub_UnknownTickersFail(t *testing.T) {
	h := newTestHub(t, newFakeLoader(t, "AAPL"), WithTickers("ZZZ"))
	_, err := h.SharePrices(context.Background(), "daily")
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestHub_Companies(t *testing.T) {
	loader := newFakeLoader(t, "AAPL", "MSFT")
	h := newTestHub(t, loader, WithTickers("MSFT"))
	ctx := context.Background()

	tbl, err := h.Companies(ctx)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "MSFT", tbl.Rows[0][0])

	again, err := h.Companies(ctx)
	require.NoError(t, err)
	assert.Same(t, tbl, again)
	assert.Equal(t, 1, loader.loadCount("companies"))
}

func TestHub_Returns(t *testing.T) {
	h := newTestHub(t, newFakeLoader(t, "AAPL", "MSFT"))
	ctx := context.Background()

	p, err := h.Returns(ctx, ReturnsOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{names.TotalReturn}, p.Columns())

	// Adjusted close is 9 + 0.45*day for AAPL and 18 + 0.45*day for MSFT.
	aapl, ok := p.Group("AAPL")
	require.True(t, ok)
	vals, _ := aapl.Values(names.TotalReturn)
	assert.True(t, math.IsNaN(vals[0]))
	assert.InDelta(t, 9.45/9.0-1, vals[1], 1e-12)

	msft, ok := p.Group("MSFT")
	require.True(t, ok)
	mvals, _ := msft.Values(names.TotalReturn)
	assert.InDelta(t, 18.45/18.0-1, mvals[1], 1e-12)
}

func TestHub_Returns_NameAndOffsetChangeTheKey(t *testing.T) {
	h := newTestHub(t, newFakeLoader(t, "AAPL"))
	ctx := context.Background()

	plain, err := h.Returns(ctx, ReturnsOptions{})
	require.NoError(t, err)
	named, err := h.Returns(ctx, ReturnsOptions{Name: "Total Return 1D"})
	require.NoError(t, err)

	assert.NotSame(t, plain, named)
	assert.Equal(t, []string{"Total Return 1D"}, named.Columns())

	weekly, err := h.Returns(ctx, ReturnsOptions{Offset: freq.Duration{BDays: 5}})
	require.NoError(t, err)
	assert.NotSame(t, plain, weekly)

	again, err := h.Returns(ctx, ReturnsOptions{})
	require.NoError(t, err)
	assert.Same(t, plain, again)
}

func TestHub_MeanLogReturns(t *testing.T) {
	h := newTestHub(t, newFakeLoader(t, "AAPL"))

	p, err := h.MeanLogReturns(context.Background(), MeanLogReturnsOptions{
		MinOffset: freq.Duration{BDays: 1},
		MaxOffset: freq.Duration{BDays: 5},
	})
	require.NoError(t, err)

	aapl, ok := p.Group("AAPL")
	require.True(t, ok)
	vals, _ := aapl.Values(names.TotalReturn)
	assert.True(t, math.IsNaN(vals[0]))
	// Prices rise monotonically, so trailing mean log returns are positive.
	assert.Greater(t, vals[10], 0.0)
}

func TestHub_PriceSignals(t *testing.T) {
	loader := newFakeLoader(t, "AAPL", "MSFT")
	h := newTestHub(t, loader)

	p, err := h.PriceSignals(context.Background())
	require.NoError(t, err)

	aapl, ok := p.Group("AAPL")
	require.True(t, ok)
	for _, name := range []string{names.MovAvg20, names.MovAvg200, names.EMA, names.MACD, names.MACDEMA} {
		assert.True(t, aapl.Has(name), name)
	}
	movAvg, _ := aapl.Values(names.MovAvg20)
	assert.True(t, math.IsNaN(movAvg[18]))
	assert.False(t, math.IsNaN(movAvg[19]))
}

func TestHub_TradeSignals(t *testing.T) {
	loader := newFakeLoader(t, "AAPL")
	h := newTestHub(t, loader)

	p, err := h.TradeSignals(context.Background(), names.MovAvg20, names.EMA)
	require.NoError(t, err)

	aapl, ok := p.Group("AAPL")
	require.True(t, ok)
	for _, name := range []string{names.Buy, names.Sell, names.Hold} {
		assert.True(t, aapl.Has(name), name)
	}
	// The price signals behind the trade flags loaded prices only once.
	assert.Equal(t, 1, loader.loadCount("shareprices-daily"))
}

func TestHub_VolumeSignals(t *testing.T) {
	loader := newFakeLoader(t, "AAPL", "MSFT")
	h := newTestHub(t, loader)

	p, err := h.VolumeSignals(context.Background(), VolumeSignalsOptions{Window: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, loader.loadCount("income-ttm"))

	aapl, ok := p.Group("AAPL")
	require.True(t, ok)
	relVol, _ := aapl.Values(names.RelVol)
	assert.True(t, math.IsNaN(relVol[3]))
	assert.False(t, math.IsNaN(relVol[10]))
	turnover, _ := aapl.Values(names.VolumeTurnover)
	assert.Greater(t, turnover[10], 0.0)
}

func TestHub_FinSignals_QuarterlyStaysOnReportDates(t *testing.T) {
	h := newTestHub(t, newFakeLoader(t, "AAPL", "MSFT"))

	p, err := h.FinSignals(context.Background(), "quarterly", nil)
	require.NoError(t, err)

	aapl, ok := p.Group("AAPL")
	require.True(t, ok)
	assert.Equal(t, testutil.QuarterEnds(testutil.Quarters), aapl.Dates())

	// ROE is net income over equity: (10+q) / (500+q) for AAPL.
	roe, ok := aapl.Values(names.ROE)
	require.True(t, ok)
	assert.InDelta(t, 10.0/500.0, roe[0], 1e-12)
	assert.InDelta(t, 17.0/507.0, roe[7], 1e-12)
}

func TestHub_FinSignals_DailyReindexesOntoPrices(t *testing.T) {
	h := newTestHub(t, newFakeLoader(t, "AAPL", "MSFT"))

	p, err := h.FinSignals(context.Background(), "daily", nil)
	require.NoError(t, err)

	aapl, ok := p.Group("AAPL")
	require.True(t, ok)
	assert.Equal(t, testutil.Days(testutil.PriceStart, testutil.PriceDays), aapl.Dates())

	roe, _ := aapl.Values(names.ROE)
	// The first price date forward-fills the 2020-03-31 report.
	assert.InDelta(t, 14.0/504.0, roe[0], 1e-12)
	// From 2020-06-30 the next report applies.
	assert.InDelta(t, 15.0/505.0, roe[29], 1e-12)
}

func TestHub_FinSignals_UnknownVariant(t *testing.T) {
	h := newTestHub(t, newFakeLoader(t, "AAPL"))
	_, err := h.FinSignals(context.Background(), "weekly", nil)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestHub_FinSignals_TransformGetsItsOwnResult(t *testing.T) {
	h := newTestHub(t, newFakeLoader(t, "AAPL"))
	ctx := context.Background()

	double := &Transform{Name: "double", Fn: func(f panel.Frame) panel.Frame {
		cols := make([]panel.Column, 0, len(f.Columns()))
		for _, name := range f.Columns() {
			v, _ := f.Values(name)
			out := make([]float64, len(v))
			for i, x := range v {
				out[i] = 2 * x
			}
			cols = append(cols, panel.Column{Name: name, Values: out})
		}
		return panel.FrameOf(f.Dates(), cols...)
	}}

	plain, err := h.FinSignals(ctx, "quarterly", nil)
	require.NoError(t, err)
	doubled, err := h.FinSignals(ctx, "quarterly", double)
	require.NoError(t, err)
	assert.NotSame(t, plain, doubled)

	pg, _ := plain.Group("AAPL")
	dg, _ := doubled.Group("AAPL")
	pROE, _ := pg.Values(names.ROE)
	dROE, _ := dg.Values(names.ROE)
	assert.InDelta(t, 2*pROE[0], dROE[0], 1e-12)
}

func TestHub_GrowthSignals(t *testing.T) {
	h := newTestHub(t, newFakeLoader(t, "AAPL", "MSFT"))

	p, err := h.GrowthSignals(context.Background(), "quarterly", nil)
	require.NoError(t, err)

	aapl, ok := p.Group("AAPL")
	require.True(t, ok)
	for _, name := range []string{names.EarningsGrowth, names.FCFGrowthYOY, names.AssetsGrowthQOQ} {
		assert.True(t, aapl.Has(name), name)
	}

	// Revenue is 100+10q, so the four-quarter growth at q=4 is 40%.
	sales, _ := aapl.Values(names.SalesGrowth)
	assert.True(t, math.IsNaN(sales[3]))
	assert.InDelta(t, 0.4, sales[4], 1e-12)

	qoq, _ := aapl.Values(names.SalesGrowthQOQ)
	assert.InDelta(t, 0.1, qoq[1], 1e-12)
}

func TestHub_ValSignals(t *testing.T) {
	h := newTestHub(t, newFakeLoader(t, "AAPL", "MSFT"))
	ctx := context.Background()

	p, err := h.ValSignals(ctx, "latest", nil, "")
	require.NoError(t, err)

	// AAPL's latest close is 32, net income common forward-fills to 15 and
	// diluted shares to 1100, so P/E is 32 / (15/1100).
	aapl, ok := p.Group("AAPL")
	require.True(t, ok)
	require.Equal(t, 1, aapl.Len())
	pe, _ := aapl.Values(names.PE)
	assert.InDelta(t, 32.0*1100.0/15.0, pe[0], 1e-9)
	mcap, _ := aapl.Values(names.MarketCap)
	assert.InDelta(t, 35200.0, mcap[0], 1e-9)

	// Basic shares swap the denominator.
	basic, err := h.ValSignals(ctx, "latest", nil, names.SharesBasic)
	require.NoError(t, err)
	bg, _ := basic.Group("AAPL")
	bpe, _ := bg.Values(names.PE)
	assert.InDelta(t, 32.0*1000.0/15.0, bpe[0], 1e-9)

	_, err = h.ValSignals(ctx, "quarterly", nil, "")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestHub_DiskCacheServesSecondHub(t *testing.T) {
	store := cache.NewDiskStore(t.TempDir())
	ctx := context.Background()

	loaderA := newFakeLoader(t, "AAPL", "MSFT")
	loaderA.touch(t, "income-ttm", "balance-ttm", "cashflow-ttm")
	hubA := newTestHub(t, loaderA, WithCacheStore(store))
	first, err := hubA.FinSignals(ctx, "quarterly", nil)
	require.NoError(t, err)

	// A fresh hub sharing the store reads the cached panel instead of
	// loading datasets again.
	loaderB := newFakeLoader(t, "AAPL", "MSFT")
	loaderB.dir = loaderA.dir
	hubB := newTestHub(t, loaderB, WithCacheStore(store))
	second, err := hubB.FinSignals(ctx, "quarterly", nil)
	require.NoError(t, err)

	assert.Zero(t, loaderB.loadCount("income-ttm"))
	fg, _ := first.Group("AAPL")
	sg, _ := second.Group("AAPL")
	assert.Equal(t, fg.Dates(), sg.Dates())
	fROE, _ := fg.Values(names.ROE)
	sROE, _ := sg.Values(names.ROE)
	assert.InDeltaSlice(t, fROE, sROE, 1e-12)
}

func TestHub_StaleCacheRecomputes(t *testing.T) {
	store := cache.NewDiskStore(t.TempDir())
	ctx := context.Background()

	loaderA := newFakeLoader(t, "AAPL")
	loaderA.touch(t, "income-ttm", "balance-ttm", "cashflow-ttm")
	hubA := newTestHub(t, loaderA, WithCacheStore(store))
	_, err := hubA.FinSignals(ctx, "quarterly", nil)
	require.NoError(t, err)

	// A source file newer than the cache entry invalidates it.
	future := time.Now().Add(time.Hour)
	incomePath := filepath.Join(loaderA.dir, "income-ttm.csv")
	require.NoError(t, os.Chtimes(incomePath, future, future))

	loaderB := newFakeLoader(t, "AAPL")
	loaderB.dir = loaderA.dir
	hubB := newTestHub(t, loaderB, WithCacheStore(store))
	_, err = hubB.FinSignals(ctx, "quarterly", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, loaderB.loadCount("income-ttm"))
}

// stubPrices is a PriceSource returning a canned panel.
type stubPrices struct {
	p     *panel.Panel
	calls int
}

func (s *stubPrices) SharePrices(context.Context, string, []string) (*panel.Panel, error) {
	s.calls++
	return s.p, nil
}

func TestHub_PriceSourceOverridesDailyPrices(t *testing.T) {
	loader := newFakeLoader(t, "AAPL")
	src := &stubPrices{p: testutil.DailyPrices(t, "AAPL")}
	h := newTestHub(t, loader, WithPriceSource(src))
	ctx := context.Background()

	p, err := h.SharePrices(ctx, "daily")
	require.NoError(t, err)
	assert.Same(t, src.p, p)
	assert.Equal(t, 1, src.calls)
	assert.Zero(t, loader.loadCount("shareprices-daily"))

	// The latest variant still comes from the bulk data.
	_, err = h.SharePrices(ctx, "latest")
	require.NoError(t, err)
	assert.Equal(t, 1, loader.loadCount("shareprices-latest"))
}

func TestHub_DatasetExtension(t *testing.T) {
	loader := newFakeLoader(t, "AAPL")
	income := loader.panels["income-ttm"]
	loader.panels = map[string]*panel.Panel{"income-banks-ttm": income}
	h := newTestHub(t, loader, WithDatasetExtension("banks"))

	p, err := h.Income(context.Background(), "ttm")
	require.NoError(t, err)
	assert.Same(t, income, p)
	assert.Equal(t, 1, loader.loadCount("income-banks-ttm"))
}

func renderCSV(t *testing.T, p *panel.Panel, dateColumn string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	header := append([]string{names.Ticker, dateColumn}, p.Columns()...)
	require.NoError(t, w.Write(header))
	for _, g := range p.Groups() {
		for i, d := range g.Dates() {
			row := []string{g.ID, d.Format("2006-01-02")}
			for _, name := range p.Columns() {
				v, _ := g.Values(name)
				row = append(row, strconv.FormatFloat(v[i], 'f', -1, 64))
			}
			require.NoError(t, w.Write(row))
		}
	}
	w.Flush()
	require.NoError(t, w.Error())
	return buf.Bytes()
}

func zipCSV(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create(name)
	require.NoError(t, err)
	_, err = f.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// TestHub_EndToEndWithBulkClient drives the whole stack: a bulk client
// downloading zipped CSVs from a test server, the hub loading and cutting
// the panels, and the signal assemblers computing on top.
func TestHub_EndToEndWithBulkClient(t *testing.T) {
	income, balance, cashflow := testutil.Statements(t, "AAPL", "MSFT")
	payloads := map[string]*panel.Panel{
		"income-ttm":        income,
		"balance-ttm":       balance,
		"cashflow-ttm":      cashflow,
		"shareprices-daily": testutil.DailyPrices(t, "AAPL", "MSFT"),
	}

	archives := make(map[string][]byte)
	for key, p := range payloads {
		dataset := key[:strings.LastIndex(key, "-")]
		d, err := bulk.Resolve(dataset)
		require.NoError(t, err)
		archives[key] = zipCSV(t, dataset+".csv", renderCSV(t, p, d.DateColumn))
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		archive, ok := archives[datasetKey(q.Get("dataset"), q.Get("variant"))]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Data.BaseURL = srv.URL
	cfg.Data.DataDir = t.TempDir()
	client := bulk.NewClient(cfg.Data, nil, bulk.WithRateLimit(1000))

	h, err := New(cfg, client, WithTickers("AAPL"))
	require.NoError(t, err)

	p, err := h.FinSignals(context.Background(), "daily", nil)
	require.NoError(t, err)
	require.Len(t, p.Groups(), 1)
	aapl, ok := p.Group("AAPL")
	require.True(t, ok)
	roe, _ := aapl.Values(names.ROE)
	assert.InDelta(t, 14.0/504.0, roe[0], 1e-9)
}
