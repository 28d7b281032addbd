package schedule

import (
	"fmt"
	"time"
)

// Activation gates a single feature behind one instant (the testimony and
// survey forms open on the last morning of the retreat).
type Activation struct {
	Date     time.Time // midnight of the activation day, in the activation zone
	Hour     int       // 0-23
	Location *time.Location
}

// NewActivation builds an activation for the given calendar day and hour.
func NewActivation(year int, month time.Month, day, hour int, loc *time.Location) (Activation, error) {
	if hour < 0 || hour > 23 {
		return Activation{}, fmt.Errorf("activation hour %d out of range 0-23", hour)
	}
	if loc == nil {
		loc = Seoul
	}
	return Activation{
		Date:     time.Date(year, month, day, 0, 0, 0, 0, loc),
		Hour:     hour,
		Location: loc,
	}, nil
}

// DefaultFormsActivation opens the forms on 2026-02-08 at 11:00 Seoul time.
func DefaultFormsActivation() Activation {
	a, _ := NewActivation(2026, time.February, 8, 11, Seoul)
	return a
}

// At is the activation instant.
func (a Activation) At() time.Time {
	return a.Date.Add(time.Duration(a.Hour) * time.Hour)
}

// Activated reports whether now is at or after the activation instant.
func (a Activation) Activated(now time.Time) bool {
	return !now.Before(a.At())
}

// DaysUntil counts calendar days from now's date to the activation date in
// the activation zone. It is never negative.
func (a Activation) DaysUntil(now time.Time) int {
	loc := a.Location
	if loc == nil {
		loc = Seoul
	}
	n := now.In(loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	target := time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), 0, 0, 0, 0, loc)
	days := int(target.Sub(today).Round(time.Hour).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Label renders the activation as "2월 8일", "2월 8일 낮 12시" or "2월 8일 11시".
func (a Activation) Label() string {
	base := fmt.Sprintf("%d월 %d일", int(a.Date.Month()), a.Date.Day())
	switch a.Hour {
	case 0:
		return base
	case 12:
		return base + " 낮 12시"
	default:
		return fmt.Sprintf("%s %d시", base, a.Hour)
	}
}

// Notice is the message shown while the gated feature is still closed.
func (a Activation) Notice() string {
	return a.Label() + "부터 이용 가능합니다"
}
