package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, MissionsFile, `{"missions":[
		{"id":1,"title":"아침 QT 하기","day":1},
		{"id":2,"title":"조원과 사진 찍기","day":1},
		{"id":3,"title":"간증 나누기","day":2}
	]}`)

	ms, err := LoadMissions(path)
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, "2", ms[2].DayID())
}

func TestLoadMissions_FallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"missions": [`},
		{"missing title", `{"missions":[{"id":1,"day":1}]}`},
		{"duplicate id", `{"missions":[{"id":1,"title":"a","day":1},{"id":1,"title":"b","day":1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "m.json", tt.content)
			ms, err := LoadMissions(path)
			require.Error(t, err)
			assert.True(t, IsDataLoadError(err))
			assert.NotNil(t, ms)
			assert.Empty(t, ms)
		})
	}

	ms, err := LoadMissions(filepath.Join(dir, "missing.json"))
	assert.True(t, IsDataLoadError(err))
	assert.Empty(t, ms)
}

func TestLoad_NeverFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, MissionsFile, `not json`)
	writeFile(t, dir, ActivitiesFile, `{"activities":[{"id":"words","emoji":"💬","name":"인정하는 말","missions":["칭찬 한마디"]}]}`)

	c := Load(dir)
	require.NotNil(t, c)
	assert.Empty(t, c.Missions)
	assert.Len(t, c.Activities, 1)
	assert.Empty(t, c.Timetable)
	assert.Empty(t, c.Groups.Groups)
	assert.Len(t, c.Problems, 3, "missions, timetable and groups fell back")
	for _, p := range c.Problems {
		assert.True(t, IsDataLoadError(p))
	}
	assert.Empty(t, c.MissionsForDay("1"))
}

func TestLoadActivities_Validation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ActivitiesFile, `{"activities":[{"id":"words","name":"인정하는 말","missions":[]}]}`)

	as, err := LoadActivities(path)
	assert.True(t, IsDataLoadError(err))
	assert.Empty(t, as)
}

func TestCatalogLookups(t *testing.T) {
	c := &Catalog{
		Missions: []Mission{
			{ID: 1, Title: "a", Day: 1},
			{ID: 2, Title: "b", Day: 2},
			{ID: 3, Title: "c", Day: 1},
		},
		Activities: []Activity{{ID: "gifts", Name: "선물", Missions: []string{"x"}}},
	}

	day1 := c.MissionsForDay("1")
	require.Len(t, day1, 2)
	assert.Equal(t, 3, day1[1].ID)

	m, ok := c.Mission(2)
	require.True(t, ok)
	assert.Equal(t, "b", m.Title)
	_, ok = c.Mission(9)
	assert.False(t, ok)

	_, ok = c.Activity("gifts")
	assert.True(t, ok)
}

func TestTimetable_CurrentIndex(t *testing.T) {
	slots := []Slot{
		{Time: "07:30", Title: "기상"},
		{Time: "08:00", Title: "아침 식사"},
		{Time: "10:00", Title: "오전 집회"},
	}
	clock := func(h, m int) time.Time { return time.Date(2026, 2, 6, h, m, 0, 0, time.UTC) }

	assert.Equal(t, -1, CurrentIndex(slots, "day1", "day1", clock(7, 0)), "before first slot")
	assert.Equal(t, 0, CurrentIndex(slots, "day1", "day1", clock(7, 30)))
	assert.Equal(t, 1, CurrentIndex(slots, "day1", "day1", clock(9, 59)))
	assert.Equal(t, 2, CurrentIndex(slots, "day1", "day1", clock(23, 0)))
	assert.Equal(t, -1, CurrentIndex(slots, "day2", "day1", clock(9, 0)), "viewing another day")
	assert.Equal(t, -1, CurrentIndex(slots, "day1", "", clock(9, 0)), "retreat not today")

	assert.Equal(t, []SlotState{SlotPast, SlotCurrent, SlotUpcoming}, States(slots, 1))
	assert.Equal(t, []SlotState{SlotUpcoming, SlotUpcoming, SlotUpcoming}, States(slots, -1))
}

func TestLoadTimetable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, TimetableFile, `{"day1":{"schedules":[{"time":"07:30","title":"기상"}]}}`)

	tt, err := LoadTimetable(path)
	require.NoError(t, err)
	assert.Len(t, tt["day1"].Schedules, 1)

	bad := writeFile(t, dir, "bad.json", `{"day1":{"schedules":[{"time":"half past","title":"?"}]}}`)
	tt, err = LoadTimetable(bad)
	assert.True(t, IsDataLoadError(err))
	assert.Empty(t, tt)
}
