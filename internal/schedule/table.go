package schedule

import (
	"fmt"
	"time"
)

// Table is an ordered, immutable set of windows keyed by ID.
type Table struct {
	windows []Window
	index   map[string]int
}

// NewTable builds a table. Windows keep their declaration order; IDs must be
// unique. The slice is copied so later mutation by the caller has no effect.
func NewTable(windows ...Window) (*Table, error) {
	t := &Table{
		windows: make([]Window, len(windows)),
		index:   make(map[string]int, len(windows)),
	}
	copy(t.windows, windows)
	for i, w := range t.windows {
		if !w.Start.Before(w.End) {
			return nil, fmt.Errorf("window %q: start must be before end", w.ID)
		}
		if _, dup := t.index[w.ID]; dup {
			return nil, fmt.Errorf("duplicate window id %q", w.ID)
		}
		t.index[w.ID] = i
	}
	return t, nil
}

// MustTable is NewTable for static literals. It panics on invalid input.
func MustTable(windows ...Window) *Table {
	t, err := NewTable(windows...)
	if err != nil {
		panic(err)
	}
	return t
}

// Windows returns a copy of the windows in declaration order.
func (t *Table) Windows() []Window {
	out := make([]Window, len(t.windows))
	copy(out, t.windows)
	return out
}

// Len returns the number of windows.
func (t *Table) Len() int {
	return len(t.windows)
}

// Lookup returns the window with the given ID.
func (t *Table) Lookup(id string) (Window, bool) {
	i, ok := t.index[id]
	if !ok {
		return Window{}, false
	}
	return t.windows[i], true
}

// Resolve resolves a single window by ID.
func (t *Table) Resolve(id string, now time.Time) (Status, bool) {
	w, ok := t.Lookup(id)
	if !ok {
		return Locked, false
	}
	return Resolve(w, now), true
}

// Statuses resolves every window at now, keyed by ID.
func (t *Table) Statuses(now time.Time) map[string]Status {
	out := make(map[string]Status, len(t.windows))
	for _, w := range t.windows {
		out[w.ID] = Resolve(w, now)
	}
	return out
}

// Seoul is the retreat's home time zone. Falls back to a fixed +09:00 zone
// when the tz database is unavailable.
var Seoul = loadSeoul()

func loadSeoul() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// DefaultTable is the 2026 winter retreat: three days, each open from 07:00
// until midnight Seoul time.
func DefaultTable() *Table {
	day := func(id string, d int) Window {
		start := time.Date(2026, time.January, d, 7, 0, 0, 0, Seoul)
		end := time.Date(2026, time.January, d+1, 0, 0, 0, 0, Seoul)
		return Window{ID: id, Label: "DAY " + id, Start: start, End: end}
	}
	return MustTable(day("1", 12), day("2", 13), day("3", 14))
}
