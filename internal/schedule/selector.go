package schedule

import "time"

// SelectDefault picks the window shown when a session loads: the first active
// window, else the latest expired window, else the first window. It returns ""
// for an empty table.
//
// Call it once per load; ticks must not move the user.
func SelectDefault(t *Table, now time.Time) string {
	if t == nil || len(t.windows) == 0 {
		return ""
	}
	for _, w := range t.windows {
		if Resolve(w, now) == Active {
			return w.ID
		}
	}
	for i := len(t.windows) - 1; i >= 0; i-- {
		if Resolve(t.windows[i], now) == Expired {
			return t.windows[i].ID
		}
	}
	return t.windows[0].ID
}
