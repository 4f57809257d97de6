package bulk

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bulkfin/bulkfin-go/pkg/errs"
	"github.com/bulkfin/bulkfin-go/pkg/names"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// Table is a reference listing without a date axis, such as companies or
// markets. Rows keep the vendor's cell text verbatim.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Row returns the first row whose cell in the named column equals value.
func (t *Table) Row(column, value string) ([]string, bool) {
	idx := -1
	for i, c := range t.Columns {
		if c == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	for _, r := range t.Rows {
		if r[idx] == value {
			return r, true
		}
	}
	return nil, false
}

const dateLayout = "2006-01-02"

// readPanel parses a semicolon-separated vendor CSV into a panel. Rows are
// grouped by the Ticker column when present and sorted by the date axis
// within each group; rows sharing a date keep the last occurrence, which is
// how restatements appear in the files. Columns whose non-empty cells all
// parse as numbers become value columns, empty cells becoming NaN; all
// other columns are metadata and are dropped.
func readPanel(path, dateColumn string) (*panel.Panel, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	dateIdx := index(header, dateColumn)
	if dateIdx < 0 {
		return nil, errs.InvalidInputf("%s: missing %q column", path, dateColumn)
	}
	tickerIdx := index(header, names.Ticker)

	value := numericColumns(header, records, dateIdx, tickerIdx)

	type row struct {
		date   time.Time
		values []float64
	}
	byTicker := make(map[string][]row)
	for n, rec := range records {
		date, err := time.ParseInLocation(dateLayout, rec[dateIdx], time.UTC)
		if err != nil {
			return nil, errs.InvalidInputf("%s row %d: bad %s %q", path, n+2, dateColumn, rec[dateIdx])
		}
		vals := make([]float64, len(value))
		for i, col := range value {
			vals[i] = parseCell(rec[col])
		}
		ticker := ""
		if tickerIdx >= 0 {
			ticker = rec[tickerIdx]
		}
		byTicker[ticker] = append(byTicker[ticker], row{date: date, values: vals})
	}

	columnNames := make([]string, len(value))
	for i, col := range value {
		columnNames[i] = header[col]
	}

	groups := make([]panel.Group, 0, len(byTicker))
	for ticker, rows := range byTicker {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })
		// Keep the last row per date.
		kept := rows[:0]
		for _, r := range rows {
			if n := len(kept); n > 0 && kept[n-1].date.Equal(r.date) {
				kept[n-1] = r
				continue
			}
			kept = append(kept, r)
		}

		dates := make([]time.Time, len(kept))
		cols := make([]panel.Column, len(columnNames))
		for i := range cols {
			cols[i] = panel.Column{Name: columnNames[i], Values: make([]float64, len(kept))}
		}
		for i, r := range kept {
			dates[i] = r.date
			for j := range cols {
				cols[j].Values[i] = r.values[j]
			}
		}
		f, err := panel.NewFrame(dates, cols...)
		if err != nil {
			return nil, fmt.Errorf("%s ticker %q: %w", path, ticker, err)
		}
		groups = append(groups, panel.Group{ID: ticker, Frame: f})
	}

	if tickerIdx < 0 {
		if len(groups) != 1 {
			return nil, errs.InvalidInputf("%s: no rows", path)
		}
		return panel.FromFrame(groups[0].Frame), nil
	}
	return panel.New(names.Ticker, groups...)
}

// readTable parses a semicolon-separated vendor CSV verbatim.
func readTable(path string) (*Table, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	return &Table{Columns: header, Rows: records}, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, errs.InvalidInputf("%s: empty file", path)
	}
	return all[0], all[1:], nil
}

// numericColumns returns the indices of columns whose non-empty cells all
// parse as decimals. The date and ticker columns are excluded.
func numericColumns(header []string, records [][]string, dateIdx, tickerIdx int) []int {
	var out []int
	for col := range header {
		if col == dateIdx || col == tickerIdx {
			continue
		}
		numeric := true
		for _, rec := range records {
			cell := strings.TrimSpace(rec[col])
			if cell == "" {
				continue
			}
			if _, err := decimal.NewFromString(cell); err != nil {
				numeric = false
				break
			}
		}
		if numeric {
			out = append(out, col)
		}
	}
	return out
}

func parseCell(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN()
	}
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return math.NaN()
	}
	return d.InexactFloat64()
}

func index(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
