// Package hub ties the library together behind one object: it loads bulk
// datasets for a configured market, filters them to a ticker watchlist,
// applies the configured publication lag and fill method, and computes the
// derived signal panels. Results are memoized in RAM and optionally
// persisted through a cache store, with staleness decided by the source
// dataset files' modification times.
package hub

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/bulkfin/bulkfin-go/internal/logging"
	"github.com/bulkfin/bulkfin-go/pkg/align"
	"github.com/bulkfin/bulkfin-go/pkg/bulk"
	"github.com/bulkfin/bulkfin-go/pkg/cache"
	"github.com/bulkfin/bulkfin-go/pkg/config"
	"github.com/bulkfin/bulkfin-go/pkg/errs"
	"github.com/bulkfin/bulkfin-go/pkg/freq"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// Loader is the dataset source. Satisfied by *bulk.Client.
type Loader interface {
	Load(ctx context.Context, dataset, variant, market string) (*panel.Panel, error)
	LoadTable(ctx context.Context, dataset, variant, market string) (*bulk.Table, error)
	Path(dataset, variant, market string) (string, error)
}

// PriceSource provides daily share prices from somewhere other than the
// bulk download, e.g. a Postgres store.
type PriceSource interface {
	SharePrices(ctx context.Context, market string, tickers []string) (*panel.Panel, error)
}

// Transform is a named per-entity transform applied inside the signal
// pipelines, e.g. a multi-year average. The name participates in cache
// keys, so different transforms must carry different names.
type Transform struct {
	Name string
	Fn   panel.Func
}

// Hub loads datasets and computes signal panels for one market and ticker
// watchlist. Returned panels are shared between callers and must be
// treated as read-only.
type Hub struct {
	loader  Loader
	prices  PriceSource
	market  string
	tickers []string
	ext     string
	offset  freq.Duration
	fill    align.Method
	store   cache.Store
	log     *logrus.Logger

	mu        sync.Mutex
	memo      map[cache.Key]*panel.Panel
	companies *bulk.Table
}

// Option configures a Hub beyond what the config carries.
type Option func(*Hub)

// WithLogger sets the logger.
func WithLogger(log *logrus.Logger) Option {
	return func(h *Hub) { h.log = log }
}

// WithCacheStore sets the persistent panel cache, overriding whatever the
// cache config would build.
func WithCacheStore(store cache.Store) Option {
	return func(h *Hub) { h.store = store }
}

// WithPriceSource routes daily share prices through the given source
// instead of the bulk download. The latest-row variant still loads from
// bulk, and persistent caching is skipped for sourced prices since their
// staleness cannot be judged from dataset files.
func WithPriceSource(src PriceSource) Option {
	return func(h *Hub) { h.prices = src }
}

// WithMarket overrides the configured market.
func WithMarket(market string) Option {
	return func(h *Hub) { h.market = market }
}

// WithTickers overrides the configured ticker watchlist. No tickers means
// the whole market.
func WithTickers(tickers ...string) Option {
	return func(h *Hub) { h.tickers = tickers }
}

// WithOffset overrides the publication lag applied to report dates.
func WithOffset(offset freq.Duration) Option {
	return func(h *Hub) { h.offset = offset }
}

// WithFillMethod overrides how fundamentals are filled between report
// dates on the price grid.
func WithFillMethod(m align.Method) Option {
	return func(h *Hub) { h.fill = m }
}

// WithDatasetExtension loads the industry-specific statement tables, e.g.
// "banks" turns income into income-banks.
func WithDatasetExtension(ext string) Option {
	return func(h *Hub) { h.ext = ext }
}

// New builds a hub from the configuration. A nil cfg uses the defaults.
// When the cache config enables persistence and no store is supplied, a
// Redis store is built when an address is configured and a disk store in
// the cache directory otherwise.
func New(cfg *config.Config, loader Loader, opts ...Option) (*Hub, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	fill, err := align.ParseMethod(cfg.Hub.FillMethod)
	if err != nil {
		return nil, err
	}

	h := &Hub{
		loader:  loader,
		market:  cfg.Hub.Market,
		tickers: append([]string(nil), cfg.Hub.Tickers...),
		offset:  freq.Duration{Days: cfg.Hub.OffsetDays},
		fill:    fill,
		memo:    make(map[cache.Key]*panel.Panel),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = logging.OrDiscard(h.log)

	if h.store == nil && cfg.Cache.Enabled {
		if addr := cfg.Cache.Redis.Addr; addr != "" {
			client := redis.NewClient(&redis.Options{
				Addr:     addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			})
			h.store = cache.NewRedisStore(client, cfg.Cache.Redis.Prefix, cfg.Cache.Redis.TTL)
		} else {
			h.store = cache.NewDiskStore(cfg.CacheDir())
		}
	}
	return h, nil
}

// key builds the cache key for a method: its name plus everything that
// influences the result.
func (h *Hub) key(name string, extra ...any) cache.Key {
	ids := []any{h.market, h.tickerID(), h.ext, h.offset, h.fill.String()}
	return cache.NewKey(name, append(ids, extra...)...)
}

func (h *Hub) tickerID() string {
	if len(h.tickers) == 0 {
		return "all"
	}
	return strings.Join(h.tickers, ",")
}

// run memoizes compute under key in RAM and persists it through store when
// one is given. Concurrent callers may compute twice; the first stored
// panel wins so repeat calls stay pointer-equal.
func (h *Hub) run(
	ctx context.Context,
	key cache.Key,
	store cache.Store,
	sources []string,
	compute func(ctx context.Context) (*panel.Panel, error),
) (*panel.Panel, error) {
	h.mu.Lock()
	if p, ok := h.memo[key]; ok {
		h.mu.Unlock()
		return p, nil
	}
	h.mu.Unlock()

	var stale func(time.Time) bool
	if len(sources) > 0 {
		stale = cache.OlderThan(sources...)
	}
	p, err := cache.ComputeOrLoad(ctx, store, key, stale, compute, h.log)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if existing, ok := h.memo[key]; ok {
		p = existing
	} else {
		h.memo[key] = p
	}
	h.mu.Unlock()
	return p, nil
}

// cut reduces a grouped panel to the configured tickers. Tickers absent
// from the dataset are dropped; it is an error when none remain.
func (h *Hub) cut(p *panel.Panel) (*panel.Panel, error) {
	if len(h.tickers) == 0 || !p.Grouped() {
		return p, nil
	}
	groups := make([]panel.Group, 0, len(h.tickers))
	for _, ticker := range h.tickers {
		if f, ok := p.Group(ticker); ok {
			groups = append(groups, panel.Group{ID: ticker, Frame: f})
		}
	}
	if len(groups) == 0 {
		return nil, errs.InvalidInputf("none of the configured tickers are in the dataset")
	}
	return panel.New(p.EntityKey(), groups...)
}

// statement maps a statement family to its dataset name, honoring the
// industry extension.
func (h *Hub) statement(base string) string {
	if h.ext == "" {
		return base
	}
	return base + "-" + h.ext
}

// sourcePaths resolves dataset file paths for staleness checks. Specs that
// do not resolve are skipped; the cache then errs on the side of assuming
// freshness for them.
func (h *Hub) sourcePaths(specs ...bulk.Spec) []string {
	var out []string
	for _, s := range specs {
		if path, err := h.loader.Path(s.Dataset, s.Variant, s.Market); err == nil {
			out = append(out, path)
		}
	}
	return out
}

func (h *Hub) pricesSpec(variant string) bulk.Spec {
	return bulk.Spec{Dataset: "shareprices", Variant: variant, Market: h.market}
}

func (h *Hub) statementSpec(base, variant string) bulk.Spec {
	return bulk.Spec{Dataset: h.statement(base), Variant: variant, Market: h.market}
}

// Companies returns the company listing cut to the ticker watchlist.
func (h *Hub) Companies(ctx context.Context) (*bulk.Table, error) {
	h.mu.Lock()
	if h.companies != nil {
		defer h.mu.Unlock()
		return h.companies, nil
	}
	h.mu.Unlock()

	tbl, err := h.loader.LoadTable(ctx, "companies", "", h.market)
	if err != nil {
		return nil, err
	}
	tbl = h.cutTable(tbl)

	h.mu.Lock()
	if h.companies == nil {
		h.companies = tbl
	} else {
		tbl = h.companies
	}
	h.mu.Unlock()
	return tbl, nil
}

func (h *Hub) cutTable(tbl *bulk.Table) *bulk.Table {
	if len(h.tickers) == 0 {
		return tbl
	}
	out := &bulk.Table{Columns: tbl.Columns}
	for _, ticker := range h.tickers {
		if row, ok := tbl.Row("Ticker", ticker); ok {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// SharePrices returns share prices for the watchlist. Variant daily is the
// full history, latest just the most recent row per ticker.
func (h *Hub) SharePrices(ctx context.Context, variant string) (*panel.Panel, error) {
	if variant != "daily" && variant != "latest" {
		return nil, errs.InvalidArgumentf("share price variant must be daily or latest, got %q", variant)
	}
	key := h.key("shareprices", variant)
	return h.run(ctx, key, nil, nil, func(ctx context.Context) (*panel.Panel, error) {
		if variant == "daily" && h.prices != nil {
			return h.prices.SharePrices(ctx, h.market, h.tickers)
		}
		p, err := h.loader.Load(ctx, "shareprices", variant, h.market)
		if err != nil {
			return nil, err
		}
		return h.cut(p)
	})
}

// Income returns income statements. Variant annual, quarterly or ttm.
func (h *Hub) Income(ctx context.Context, variant string) (*panel.Panel, error) {
	return h.fundamentals(ctx, "income", variant)
}

// Balance returns balance sheets. Variant annual, quarterly or ttm.
func (h *Hub) Balance(ctx context.Context, variant string) (*panel.Panel, error) {
	return h.fundamentals(ctx, "balance", variant)
}

// CashFlow returns cash-flow statements. Variant annual, quarterly or ttm.
func (h *Hub) CashFlow(ctx context.Context, variant string) (*panel.Panel, error) {
	return h.fundamentals(ctx, "cashflow", variant)
}

func (h *Hub) fundamentals(ctx context.Context, base, variant string) (*panel.Panel, error) {
	dataset := h.statement(base)
	key := h.key(base, variant)
	return h.run(ctx, key, nil, nil, func(ctx context.Context) (*panel.Panel, error) {
		p, err := h.loader.Load(ctx, dataset, variant, h.market)
		if err != nil {
			return nil, err
		}
		return h.cut(p)
	})
}

// signalPrices resolves the output grid for the ratio and growth signal
// methods: daily and latest load that share-price variant, quarterly
// leaves the signals on the report dates.
func (h *Hub) signalPrices(ctx context.Context, variant string) (*panel.Panel, error) {
	switch variant {
	case "daily", "latest":
		return h.SharePrices(ctx, variant)
	case "quarterly":
		return nil, nil
	}
	return nil, errs.InvalidArgumentf("signal variant must be daily, latest or quarterly, got %q", variant)
}

func transformParts(tr *Transform) (string, panel.Func) {
	if tr == nil {
		return "", nil
	}
	return tr.Name, tr.Fn
}
