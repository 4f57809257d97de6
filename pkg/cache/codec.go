package cache

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bulkfin/bulkfin-go/pkg/errs"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// Cache entries are semicolon-separated CSV with a leading metadata line
// naming the entity key. Grouped panels carry the entity as the first
// column, the date axis follows, NaN becomes an empty cell:
//
//	#entity=Ticker
//	Ticker;Date;Close;Volume
//	AAPL;2020-01-02;75.1;135480400

const (
	entityPrefix = "#entity="
	dateLayout   = "2006-01-02"
)

func encodePanel(p *panel.Panel) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s%s\n", entityPrefix, p.EntityKey())

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	cols := p.Columns()
	header := make([]string, 0, len(cols)+2)
	if p.Grouped() {
		header = append(header, p.EntityKey())
	}
	header = append(header, "Date")
	header = append(header, cols...)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, g := range p.Groups() {
		values := make([][]float64, len(cols))
		for i, name := range cols {
			values[i], _ = g.Values(name)
		}
		for r, date := range g.Dates() {
			rec := make([]string, 0, len(header))
			if p.Grouped() {
				rec = append(rec, g.ID)
			}
			rec = append(rec, date.Format(dateLayout))
			for i := range cols {
				rec = append(rec, formatCell(values[i][r]))
			}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func decodePanel(data []byte) (*panel.Panel, error) {
	nl := bytes.IndexByte(data, '\n')
	if nl < 0 || !bytes.HasPrefix(data, []byte(entityPrefix)) {
		return nil, errs.InvalidInputf("cache entry missing entity line")
	}
	entity := string(data[len(entityPrefix):nl])

	r := csv.NewReader(bytes.NewReader(data[nl+1:]))
	r.Comma = ';'
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cache entry: %w", err)
	}
	if len(all) == 0 {
		return nil, errs.InvalidInputf("cache entry missing header")
	}

	base := 0
	if entity != "" {
		base = 1
	}
	header := all[0]
	if len(header) < base+1 {
		return nil, errs.InvalidInputf("cache entry header too short")
	}
	colNames := header[base+1:]

	type groupData struct {
		dates  []time.Time
		values [][]float64
	}
	byID := make(map[string]*groupData)
	var order []string
	for n, rec := range all[1:] {
		id := ""
		if entity != "" {
			id = rec[0]
		}
		date, err := time.ParseInLocation(dateLayout, rec[base], time.UTC)
		if err != nil {
			return nil, errs.InvalidInputf("cache entry row %d: bad date %q", n+1, rec[base])
		}
		gd, ok := byID[id]
		if !ok {
			gd = &groupData{values: make([][]float64, len(colNames))}
			byID[id] = gd
			order = append(order, id)
		}
		gd.dates = append(gd.dates, date)
		for i := range colNames {
			gd.values[i] = append(gd.values[i], parseCell(rec[base+1+i]))
		}
	}

	groups := make([]panel.Group, 0, len(order))
	for _, id := range order {
		gd := byID[id]
		cols := make([]panel.Column, len(colNames))
		for i, name := range colNames {
			cols[i] = panel.Column{Name: name, Values: gd.values[i]}
		}
		f, err := panel.NewFrame(gd.dates, cols...)
		if err != nil {
			return nil, fmt.Errorf("cache entry group %q: %w", id, err)
		}
		groups = append(groups, panel.Group{ID: id, Frame: f})
	}

	if entity == "" {
		if len(groups) != 1 {
			return nil, errs.InvalidInputf("cache entry has no rows")
		}
		return panel.FromFrame(groups[0].Frame), nil
	}
	return panel.New(entity, groups...)
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseCell(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
