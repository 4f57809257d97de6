// Package store reads share prices from Postgres as an alternative to the
// bulk CSV download, for setups that already warehouse price history. The
// panels it produces have the same shape as the bulk loader's, so the hub
// and the signal assemblers work with either source.
package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/bulkfin/bulkfin-go/internal/logging"
	"github.com/bulkfin/bulkfin-go/pkg/config"
	"github.com/bulkfin/bulkfin-go/pkg/names"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// Pool is the database access the store needs. Satisfied by *pgxpool.Pool
// and by pgxmock pools in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Store struct {
	pool Pool
	log  *logrus.Logger
}

// New wraps a connection pool. A nil logger discards logs.
func New(pool Pool, log *logrus.Logger) *Store {
	return &Store{pool: pool, log: logging.OrDiscard(log)}
}

// Connect builds a pgx pool from the configuration and verifies the
// connection.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

const sharePricesQuery = `
SELECT ticker, date, close, adj_close, volume, shares_outstanding
FROM share_prices
WHERE market = $1
ORDER BY ticker, date`

const sharePricesTickersQuery = `
SELECT ticker, date, close, adj_close, volume, shares_outstanding
FROM share_prices
WHERE market = $1 AND ticker = ANY($2)
ORDER BY ticker, date`

// SharePrices loads daily share prices for a market as a ticker-grouped
// panel with Close, Adj. Close, Volume and Shares Outstanding columns.
// An empty tickers slice loads the whole market. NULL cells become NaN.
func (s *Store) SharePrices(ctx context.Context, market string, tickers []string) (*panel.Panel, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(tickers) == 0 {
		rows, err = s.pool.Query(ctx, sharePricesQuery, market)
	} else {
		rows, err = s.pool.Query(ctx, sharePricesTickersQuery, market, tickers)
	}
	if err != nil {
		return nil, fmt.Errorf("query share prices: %w", err)
	}
	defer rows.Close()

	columnNames := []string{names.Close, names.AdjClose, names.Volume, names.SharesOutstanding}

	var (
		groups  []panel.Group
		current string
		dates   []time.Time
		values  [][]float64
	)
	flush := func() error {
		if len(dates) == 0 {
			return nil
		}
		cols := make([]panel.Column, len(columnNames))
		for i, name := range columnNames {
			cols[i] = panel.Column{Name: name, Values: values[i]}
		}
		f, err := panel.NewFrame(dates, cols...)
		if err != nil {
			return fmt.Errorf("ticker %q: %w", current, err)
		}
		groups = append(groups, panel.Group{ID: current, Frame: f})
		return nil
	}

	nrows := 0
	for rows.Next() {
		var (
			ticker                        string
			date                          time.Time
			closePx, adjClose, vol, count *float64
		)
		if err := rows.Scan(&ticker, &date, &closePx, &adjClose, &vol, &count); err != nil {
			return nil, fmt.Errorf("scan share price row: %w", err)
		}
		if ticker != current {
			if err := flush(); err != nil {
				return nil, err
			}
			current = ticker
			dates = nil
			values = make([][]float64, len(columnNames))
		}
		dates = append(dates, date)
		for i, v := range []*float64{closePx, adjClose, vol, count} {
			values[i] = append(values[i], deref(v))
		}
		nrows++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read share prices: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"market": market, "tickers": len(groups), "rows": nrows,
	}).Debug("Loaded share prices from database")

	return panel.New(names.Ticker, groups...)
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
