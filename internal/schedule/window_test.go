package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day1() Window {
	return Window{
		ID:    "1",
		Label: "DAY 1",
		Start: time.Date(2026, time.January, 12, 7, 0, 0, 0, Seoul),
		End:   time.Date(2026, time.January, 13, 0, 0, 0, 0, Seoul),
	}
}

func TestResolve_Boundaries(t *testing.T) {
	w := day1()

	assert.Equal(t, Locked, Resolve(w, w.Start.Add(-time.Millisecond)), "1ms before start")
	assert.Equal(t, Active, Resolve(w, w.Start), "start is inclusive")
	assert.Equal(t, Active, Resolve(w, w.End.Add(-time.Millisecond)), "1ms before end")
	assert.Equal(t, Expired, Resolve(w, w.End), "end is exclusive")
	assert.Equal(t, Expired, Resolve(w, w.End.Add(time.Hour)))
}

func TestResolve_MidnightRollover(t *testing.T) {
	w := day1()
	before := time.Date(2026, time.January, 12, 23, 59, 59, int(999*time.Millisecond), Seoul)

	assert.Equal(t, Active, Resolve(w, before))
	assert.Equal(t, Expired, Resolve(w, before.Add(time.Millisecond)))
}

func TestResolve_MonotonicAndIdempotent(t *testing.T) {
	w := day1()
	from := w.Start.Add(-6 * time.Hour)
	to := w.End.Add(6 * time.Hour)

	prev := Locked
	for now := from; now.Before(to); now = now.Add(7 * time.Minute) {
		s := Resolve(w, now)
		assert.GreaterOrEqual(t, int(s), int(prev), "status regressed at %s", now)
		assert.Equal(t, s, Resolve(w, now), "resolver must be idempotent")
		prev = s
	}
	assert.Equal(t, Expired, prev)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "locked", Locked.String())
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "expired", Expired.String())

	text, err := Active.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "active", string(text))
}

func TestNewWindow_RejectsInvertedInterval(t *testing.T) {
	start := time.Date(2026, time.January, 12, 7, 0, 0, 0, Seoul)

	_, err := NewWindow("1", "", start, start)
	require.Error(t, err)

	_, err = NewWindow("1", "", start, start.Add(-time.Hour))
	require.Error(t, err)

	_, err = NewWindow("", "", start, start.Add(time.Hour))
	require.Error(t, err)

	w, err := NewWindow("1", "", start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "1", w.Label, "label defaults to id")
}

func TestTable_RejectsDuplicates(t *testing.T) {
	w := day1()
	_, err := NewTable(w, w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestTable_BeforeEverything_AllLocked(t *testing.T) {
	tbl := DefaultTable()
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, Seoul)

	for id, s := range tbl.Statuses(now) {
		assert.Equal(t, Locked, s, "window %s", id)
	}
}

func TestTable_LookupAndResolve(t *testing.T) {
	tbl := DefaultTable()
	require.Equal(t, 3, tbl.Len())

	w, ok := tbl.Lookup("2")
	require.True(t, ok)
	assert.Equal(t, 13, w.Start.Day())

	s, ok := tbl.Resolve("2", w.Start)
	require.True(t, ok)
	assert.Equal(t, Active, s)

	_, ok = tbl.Lookup("9")
	assert.False(t, ok)
}

func TestTable_WindowsIsCopy(t *testing.T) {
	tbl := DefaultTable()
	ws := tbl.Windows()
	ws[0].ID = "mutated"

	_, ok := tbl.Lookup("1")
	assert.True(t, ok)
	assert.Equal(t, "1", tbl.Windows()[0].ID)
}
