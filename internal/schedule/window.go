package schedule

import (
	"fmt"
	"time"
)

// Status is the resolved state of a window at an instant.
type Status int

const (
	// Locked means the window has not started yet.
	Locked Status = iota
	// Active means now is inside [Start, End).
	Active
	// Expired means End has been reached or passed. Terminal.
	Expired
)

// String returns the lowercase status name used in signals and JSON output.
func (s Status) String() string {
	switch s {
	case Locked:
		return "locked"
	case Active:
		return "active"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Window is a time interval during which a day or activity is usable.
type Window struct {
	ID    string
	Label string
	Start time.Time // inclusive
	End   time.Time // exclusive
}

// NewWindow validates and builds a window. Start must be strictly before End.
func NewWindow(id, label string, start, end time.Time) (Window, error) {
	if id == "" {
		return Window{}, fmt.Errorf("window: id is required")
	}
	if !start.Before(end) {
		return Window{}, fmt.Errorf("window %q: start %s must be before end %s",
			id, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if label == "" {
		label = id
	}
	return Window{ID: id, Label: label, Start: start, End: end}, nil
}

// Resolve maps (window, now) to a status using the half-open interval
// [Start, End). It has no side effects.
func Resolve(w Window, now time.Time) Status {
	if now.Before(w.Start) {
		return Locked
	}
	if !now.Before(w.End) {
		return Expired
	}
	return Active
}

// Status is shorthand for Resolve(w, now).
func (w Window) Status(now time.Time) Status {
	return Resolve(w, now)
}
