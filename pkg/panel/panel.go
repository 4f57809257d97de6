// Package panel holds the data model shared by every computation in this
// module: a panel of named float64 columns over strictly increasing dates,
// optionally partitioned into per-entity groups (one frame per ticker, for
// example). Grouped and ungrouped panels expose the same operations; Apply
// is the single place where the distinction matters, so per-entity isolation
// of shifts, rolling windows and interpolation falls out of the shape rather
// than being re-implemented by each caller.
package panel

import (
	"sort"
	"time"

	"github.com/bulkfin/bulkfin-go/internal/floats"
	"github.com/bulkfin/bulkfin-go/pkg/errs"
	"github.com/bulkfin/bulkfin-go/pkg/freq"
)

// Group is one entity's frame inside a grouped panel. In an ungrouped panel
// there is a single group with an empty ID. The frame is embedded, so its
// read accessors are available on the group directly.
type Group struct {
	ID string
	Frame
}

// Panel is a set of groups sharing one column layout. A grouped panel has a
// non-empty entity key (the name of the grouping dimension, such as
// "Ticker") and zero or more groups with unique, non-empty IDs sorted
// ascending. An ungrouped panel has an empty entity key and exactly one
// group with an empty ID.
type Panel struct {
	entityKey string
	groups    []Group
}

// Func transforms one frame. Applied to a panel it runs once per group,
// never across group boundaries.
type Func func(Frame) Frame

// New validates and builds a panel. With an empty entityKey exactly one
// group with an empty ID is required. With a non-empty entityKey all group
// IDs must be unique and non-empty, and every group must carry the same
// columns in the same order. Groups are sorted by ID.
func New(entityKey string, groups ...Group) (*Panel, error) {
	if entityKey == "" {
		if len(groups) != 1 || groups[0].ID != "" {
			return nil, errs.InvalidInputf("ungrouped panel requires exactly one group with an empty ID")
		}
		return &Panel{groups: groups}, nil
	}
	sorted := make([]Group, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	var layout []string
	for i, g := range sorted {
		if g.ID == "" {
			return nil, errs.InvalidInputf("grouped panel with empty group ID")
		}
		if i > 0 && g.ID == sorted[i-1].ID {
			return nil, errs.InvalidInputf("duplicate group %q", g.ID)
		}
		if i == 0 {
			layout = g.Frame.Columns()
			continue
		}
		if !sameColumns(layout, g.Frame.Columns()) {
			return nil, errs.InvalidInputf("group %q has a different column layout", g.ID)
		}
	}
	return &Panel{entityKey: entityKey, groups: sorted}, nil
}

// FromFrame wraps a single frame as an ungrouped panel.
func FromFrame(f Frame) *Panel {
	return &Panel{groups: []Group{{Frame: f}}}
}

// NewSeries builds an ungrouped single-column panel.
func NewSeries(dates []time.Time, name string, values []float64) (*Panel, error) {
	f, err := NewFrame(dates, Column{Name: name, Values: values})
	if err != nil {
		return nil, err
	}
	return FromFrame(f), nil
}

// EntityKey returns the grouping dimension name, empty for ungrouped panels.
func (p *Panel) EntityKey() string { return p.entityKey }

// Grouped reports whether the panel is partitioned by an entity key.
func (p *Panel) Grouped() bool { return p.entityKey != "" }

// Groups returns the groups in ID order. The slice is shared; treat it as
// read-only.
func (p *Panel) Groups() []Group { return p.groups }

// Group returns the frame of the named group.
func (p *Panel) Group(id string) (Frame, bool) {
	i := sort.Search(len(p.groups), func(i int) bool { return p.groups[i].ID >= id })
	if i < len(p.groups) && p.groups[i].ID == id {
		return p.groups[i].Frame, true
	}
	return Frame{}, false
}

// Len returns the total number of rows across all groups.
func (p *Panel) Len() int {
	n := 0
	for _, g := range p.groups {
		n += g.Frame.Len()
	}
	return n
}

// Columns returns the shared column names, nil for a panel without groups.
func (p *Panel) Columns() []string {
	if len(p.groups) == 0 {
		return nil
	}
	return p.groups[0].Frame.Columns()
}

// Require returns an error naming the first of the given columns the panel
// does not carry.
func (p *Panel) Require(names ...string) error {
	if len(p.groups) == 0 {
		return errs.InvalidInputf("empty panel")
	}
	f := p.groups[0].Frame
	for _, name := range names {
		if !f.Has(name) {
			return errs.InvalidInputf("missing column %q", name)
		}
	}
	return nil
}

// Apply runs fn once per group and assembles the results into a new panel
// with the same entity key and group IDs. fn must produce the same column
// layout for every group.
func (p *Panel) Apply(fn Func) *Panel {
	groups := make([]Group, len(p.groups))
	for i, g := range p.groups {
		groups[i] = Group{ID: g.ID, Frame: fn(g.Frame)}
	}
	return &Panel{entityKey: p.entityKey, groups: groups}
}

// Select returns a panel restricted to the named columns, in the given
// order.
func (p *Panel) Select(names ...string) (*Panel, error) {
	if err := p.Require(names...); err != nil {
		return nil, err
	}
	return p.Apply(func(f Frame) Frame {
		out, _ := f.Select(names...)
		return out
	}), nil
}

// Rename returns a panel with columns renamed per the mapping. Names absent
// from the panel are ignored.
func (p *Panel) Rename(mapping map[string]string) *Panel {
	return p.Apply(func(f Frame) Frame { return f.Rename(mapping) })
}

// SortColumns returns a panel with columns ordered by name.
func (p *Panel) SortColumns() *Panel {
	return p.Apply(Frame.SortColumns)
}

// Copy returns a deep copy.
func (p *Panel) Copy() *Panel {
	return p.Apply(Frame.Copy)
}

// ShiftDates moves every date by the given calendar offset, modeling a
// publication lag between a report date and the date the report became
// available. Business days are applied as calendar days here. Month-based
// offsets can collapse distinct month-end dates onto one day; that surfaces
// as an error.
func (p *Panel) ShiftDates(d freq.Duration) (*Panel, error) {
	days := d.Days + 7*d.Weeks + d.BDays
	months := d.Months + 3*d.Quarters
	groups := make([]Group, len(p.groups))
	for gi, g := range p.groups {
		shifted := make([]time.Time, g.Frame.Len())
		for i, t := range g.Frame.Dates() {
			shifted[i] = t.AddDate(d.Years, months, days)
			if i > 0 && !shifted[i].After(shifted[i-1]) {
				return nil, errs.InvalidInputf("date offset collapses rows %d and %d in group %q", i-1, i, g.ID)
			}
		}
		groups[gi] = Group{ID: g.ID, Frame: FrameOf(shifted, g.Frame.cols...)}
	}
	return &Panel{entityKey: p.entityKey, groups: groups}, nil
}

// Join concatenates panels column-wise. All panels must share the entity key;
// column names must be unique across inputs. Per group the result's date axis
// is the union of the inputs' axes, each input's values placed at its own
// dates and NaN elsewhere. A group missing from an input yields NaN for that
// input's columns.
func Join(panels ...*Panel) (*Panel, error) {
	if len(panels) == 0 {
		return nil, errs.InvalidArgumentf("join of no panels")
	}
	key := panels[0].entityKey
	seen := make(map[string]bool)
	for _, p := range panels {
		if p.entityKey != key {
			return nil, errs.TypeMismatchf("joining %q panel with %q panel", key, p.entityKey)
		}
		for _, name := range p.Columns() {
			if seen[name] {
				return nil, errs.InvalidInputf("duplicate column %q across joined panels", name)
			}
			seen[name] = true
		}
	}

	ids := unionIDs(panels)
	groups := make([]Group, 0, len(ids))
	for _, id := range ids {
		var axis []time.Time
		for _, p := range panels {
			if f, ok := p.Group(id); ok {
				axis = DateUnion(axis, f.Dates())
			}
		}
		var cols []Column
		for _, p := range panels {
			f, ok := p.Group(id)
			if !ok {
				for _, name := range p.Columns() {
					cols = append(cols, Column{Name: name, Values: floats.NaNs(len(axis))})
				}
				continue
			}
			cols = append(cols, f.OnGrid(axis).cols...)
		}
		groups = append(groups, Group{ID: id, Frame: FrameOf(axis, cols...)})
	}
	return &Panel{entityKey: key, groups: groups}, nil
}

func unionIDs(panels []*Panel) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, p := range panels {
		for _, g := range p.groups {
			if !seen[g.ID] {
				seen[g.ID] = true
				ids = append(ids, g.ID)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
