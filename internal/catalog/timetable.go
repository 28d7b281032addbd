package catalog

import (
	"fmt"
	"time"
)

// Slot is one timetable row.
type Slot struct {
	Time  string `json:"time"` // "HH:MM"
	Title string `json:"title"`
}

// TimetableDay is the schedule of one tab.
type TimetableDay struct {
	Schedules []Slot `json:"schedules"`
}

// Timetable maps a day key ("day1") to its schedule.
type Timetable map[string]TimetableDay

// LoadTimetable decodes a timetable document. On failure it returns an
// empty timetable and a *DataLoadError.
func LoadTimetable(path string) (Timetable, error) {
	var tt Timetable
	if err := decodeFile(path, &tt); err != nil {
		return Timetable{}, err
	}
	for key, day := range tt {
		for i, s := range day.Schedules {
			if _, err := slotMinutes(s.Time); err != nil {
				return Timetable{}, &DataLoadError{Path: path, Err: fmt.Errorf("%s.schedules[%d]: %w", key, i, err)}
			}
		}
	}
	if tt == nil {
		tt = Timetable{}
	}
	return tt, nil
}

// SlotState marks a row relative to now.
type SlotState string

const (
	SlotPast     SlotState = "past"
	SlotCurrent  SlotState = "current"
	SlotUpcoming SlotState = "upcoming"
)

// CurrentIndex returns the index of the row happening now: the last row whose
// start time is at or before now. It is -1 when the viewed tab is not today
// or the first row has not started.
func CurrentIndex(slots []Slot, viewing, today string, now time.Time) int {
	if viewing == "" || viewing != today {
		return -1
	}
	nowMinutes := now.Hour()*60 + now.Minute()
	for i := len(slots) - 1; i >= 0; i-- {
		m, err := slotMinutes(slots[i].Time)
		if err != nil {
			continue
		}
		if nowMinutes >= m {
			return i
		}
	}
	return -1
}

// States labels every row given the current index.
func States(slots []Slot, current int) []SlotState {
	out := make([]SlotState, len(slots))
	for i := range slots {
		switch {
		case i == current:
			out[i] = SlotCurrent
		case i < current:
			out[i] = SlotPast
		default:
			out[i] = SlotUpcoming
		}
	}
	return out
}

func slotMinutes(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	return t.Hour()*60 + t.Minute(), nil
}
