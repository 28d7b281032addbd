// Package testutil holds clocks and fixtures shared by tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/retreat/internal/catalog"
	"github.com/roach88/retreat/internal/schedule"
)

// Fixture instants, Asia/Seoul.
var (
	// D1Open is when day 1 opens.
	D1Open = time.Date(2026, time.January, 12, 7, 0, 0, 0, schedule.Seoul)
	// D1Close is when day 1 ends (24:00).
	D1Close = time.Date(2026, time.January, 13, 0, 0, 0, 0, schedule.Seoul)
	// FormsOpen is when the testimony and survey forms open.
	FormsOpen = time.Date(2026, time.January, 14, 11, 0, 0, 0, schedule.Seoul)
)

// Calendar is the fixture calendar: three days on 2026-01-12..14 open
// [07:00, 24:00), forms opening on the last day at 11:00, and timetable tabs
// on the same dates.
func Calendar() *schedule.Calendar {
	forms, _ := schedule.NewActivation(2026, time.January, 14, 11, schedule.Seoul)
	day := func(key string, d int) schedule.Day {
		return schedule.Day{Key: key, Date: time.Date(2026, time.January, d, 0, 0, 0, 0, schedule.Seoul)}
	}
	return &schedule.Calendar{
		Table:         schedule.DefaultTable(),
		Forms:         forms,
		TimetableDays: []schedule.Day{day("day1", 12), day("day2", 13), day("day3", 14)},
		Location:      schedule.Seoul,
	}
}

// Catalog is the fixture data set.
func Catalog() *catalog.Catalog {
	return &catalog.Catalog{
		Missions: []catalog.Mission{
			{ID: 1, Title: "아침 기도", Day: 1},
			{ID: 2, Title: "말씀 묵상", Day: 1},
			{ID: 3, Title: "감사 일기", Day: 1},
			{ID: 4, Title: "조원 칭찬하기", Day: 2},
			{ID: 5, Title: "찬양 한 곡 외우기", Day: 3},
		},
		Activities: []catalog.Activity{
			{ID: "praise", Emoji: "🤝", Name: "칭찬하기", Missions: []string{"장점 세 가지 말하기", "손편지 쓰기", "안아주기"}, Window: "1"},
			{ID: "pray", Emoji: "🙏", Name: "중보기도", Missions: []string{"함께 기도하기", "기도제목 나누기"}, Window: "2"},
			{ID: "meal", Emoji: "🍚", Name: "식사 교제", Missions: []string{"같이 밥 먹기"}},
		},
		Timetable: catalog.Timetable{
			"day1": {Schedules: []catalog.Slot{
				{Time: "07:00", Title: "기상"},
				{Time: "08:00", Title: "아침 식사"},
				{Time: "10:00", Title: "오전 집회"},
				{Time: "12:30", Title: "점심 식사"},
			}},
			"day2": {Schedules: []catalog.Slot{{Time: "09:00", Title: "조별 모임"}}},
		},
		Groups: catalog.Groups{Groups: []catalog.Group{{
			Name:   "1조",
			Leader: "김하늘",
			Members: []catalog.Member{
				{Name: "김하늘", Phone: "010-1234-5678", Room: "301호"},
				{Name: "이지민", Phone: "010-9876-4321", Room: "302호"},
			},
		}}},
	}
}

// WriteDataDir writes the fixture catalog as JSON documents into dir, the
// layout catalog.Load reads.
func WriteDataDir(t *testing.T, dir string) {
	t.Helper()
	c := Catalog()
	docs := map[string]any{
		catalog.MissionsFile:   map[string]any{"missions": c.Missions},
		catalog.ActivitiesFile: map[string]any{"activities": c.Activities},
		catalog.TimetableFile:  c.Timetable,
		catalog.GroupsFile:     c.Groups,
	}
	for name, doc := range docs {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}
