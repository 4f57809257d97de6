package panel

import (
	"sort"
	"time"

	"github.com/bulkfin/bulkfin-go/internal/floats"
	"github.com/bulkfin/bulkfin-go/pkg/errs"
)

// Column is a named series of values positioned on its frame's date axis.
// NaN marks a missing observation.
type Column struct {
	Name   string
	Values []float64
}

// Frame is a rectangular block of columns over a strictly increasing date
// axis. Dates are normalized to midnight UTC. Frames are value types and are
// never mutated in place; operations return new frames.
type Frame struct {
	dates []time.Time
	cols  []Column
}

// NewFrame validates and builds a frame. Dates must be strictly increasing
// once normalized to midnight UTC, column names must be unique and every
// column must match the date axis in length. The frame takes ownership of
// the column value slices; callers must not modify them afterwards.
func NewFrame(dates []time.Time, cols ...Column) (Frame, error) {
	norm := make([]time.Time, len(dates))
	for i, d := range dates {
		norm[i] = Date(d.Year(), d.Month(), d.Day())
		if i > 0 && !norm[i].After(norm[i-1]) {
			return Frame{}, errs.InvalidInputf("dates not strictly increasing at row %d (%s)", i, norm[i].Format("2006-01-02"))
		}
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if c.Name == "" {
			return Frame{}, errs.InvalidInputf("column with empty name")
		}
		if seen[c.Name] {
			return Frame{}, errs.InvalidInputf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		if len(c.Values) != len(norm) {
			return Frame{}, errs.InvalidInputf("column %q has %d values for %d dates", c.Name, len(c.Values), len(norm))
		}
	}
	return Frame{dates: norm, cols: cols}, nil
}

// FrameOf builds a frame without validation. The dates must come from an
// existing frame (or otherwise already satisfy the frame invariants) and
// every column must match their length. It is intended for computations that
// derive new columns on an axis that is known to be valid.
func FrameOf(dates []time.Time, cols ...Column) Frame {
	return Frame{dates: dates, cols: cols}
}

// Date returns midnight UTC of the given calendar day, the canonical form
// of every frame date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Len returns the number of rows.
func (f Frame) Len() int { return len(f.dates) }

// Dates returns the date axis. The slice is shared; treat it as read-only.
func (f Frame) Dates() []time.Time { return f.dates }

// Columns returns the column names in frame order.
func (f Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the frame carries the named column.
func (f Frame) Has(name string) bool {
	_, ok := f.Values(name)
	return ok
}

// Values returns the value slice of the named column. The slice is shared;
// treat it as read-only.
func (f Frame) Values(name string) ([]float64, bool) {
	for _, c := range f.cols {
		if c.Name == name {
			return c.Values, true
		}
	}
	return nil, false
}

// Select returns a frame restricted to the named columns, in the given
// order. Unknown names are an error.
func (f Frame) Select(names ...string) (Frame, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		v, ok := f.Values(name)
		if !ok {
			return Frame{}, errs.InvalidInputf("unknown column %q", name)
		}
		cols = append(cols, Column{Name: name, Values: v})
	}
	return FrameOf(f.dates, cols...), nil
}

// Rename returns a frame with columns renamed per the mapping. Names absent
// from the frame are ignored. The mapping must not introduce duplicates.
func (f Frame) Rename(mapping map[string]string) Frame {
	cols := make([]Column, len(f.cols))
	for i, c := range f.cols {
		if to, ok := mapping[c.Name]; ok {
			c.Name = to
		}
		cols[i] = c
	}
	return FrameOf(f.dates, cols...)
}

// SortColumns returns a frame with columns ordered by name.
func (f Frame) SortColumns() Frame {
	cols := make([]Column, len(f.cols))
	copy(cols, f.cols)
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	return FrameOf(f.dates, cols...)
}

// Copy returns a frame with freshly allocated date and value slices.
func (f Frame) Copy() Frame {
	dates := make([]time.Time, len(f.dates))
	copy(dates, f.dates)
	cols := make([]Column, len(f.cols))
	for i, c := range f.cols {
		vals := make([]float64, len(c.Values))
		copy(vals, c.Values)
		cols[i] = Column{Name: c.Name, Values: vals}
	}
	return FrameOf(dates, cols...)
}

// OnGrid places the frame's values onto the given date grid. Grid rows whose
// date matches a frame date take that row's values; all other rows are NaN.
// The grid must be strictly increasing.
func (f Frame) OnGrid(grid []time.Time) Frame {
	cols := make([]Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = Column{Name: c.Name, Values: floats.NaNs(len(grid))}
	}
	j := 0
	for i, d := range grid {
		for j < len(f.dates) && f.dates[j].Before(d) {
			j++
		}
		if j < len(f.dates) && f.dates[j].Equal(d) {
			for k, c := range f.cols {
				cols[k].Values[i] = c.Values[j]
			}
		}
	}
	return FrameOf(grid, cols...)
}

// DateUnion merges two strictly increasing date axes into one.
func DateUnion(a, b []time.Time) []time.Time {
	out := make([]time.Time, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Before(b[j]):
			out = append(out, a[i])
			i++
		case b[j].Before(a[i]):
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i, j = i+1, j+1
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
