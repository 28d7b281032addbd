package schedule

import (
	"fmt"
	"time"
)

// Day ties a timetable key ("day1") to a calendar date.
type Day struct {
	Key  string
	Date time.Time
}

// DefaultTimetableDays are the timetable tabs of the 2026 retreat.
func DefaultTimetableDays() []Day {
	d := func(key string, day int) Day {
		return Day{Key: key, Date: time.Date(2026, time.February, day, 0, 0, 0, 0, Seoul)}
	}
	return []Day{d("day1", 6), d("day2", 7), d("day3", 8)}
}

// TodayKey returns the key of the day whose date matches now's date in that
// day's zone, or "" when the retreat is not running today.
func TodayKey(days []Day, now time.Time) string {
	for _, d := range days {
		n := now.In(d.Date.Location())
		if n.Year() == d.Date.Year() && n.Month() == d.Date.Month() && n.Day() == d.Date.Day() {
			return d.Key
		}
	}
	return ""
}

var weekdays = [...]string{"주일", "월", "화", "수", "목", "금", "토"}

// TabLabel renders a day's tab date as "(2월 6일 금)".
func (d Day) TabLabel() string {
	return fmt.Sprintf("(%d월 %d일 %s)", int(d.Date.Month()), d.Date.Day(), weekdays[d.Date.Weekday()])
}
