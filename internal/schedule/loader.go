package schedule

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// Calendar is everything time-related the companion needs: the gated day
// windows, the forms activation and the timetable tabs.
type Calendar struct {
	Table         *Table
	Forms         Activation
	TimetableDays []Day
	Location      *time.Location

	// Stamp gates activities that name no day window. When its ID is
	// empty, StampWindow spans the whole table instead.
	Stamp Window
}

// StampWindowID identifies the window returned by StampWindow.
const StampWindowID = "stamp"

const stampLabel = "스탬프 활동"

// StampWindow returns the window gating activities without a day window of
// their own: Stamp when set, otherwise first start to last end of the table.
// ok is false only when the calendar has no windows at all.
func (c *Calendar) StampWindow() (Window, bool) {
	if c.Stamp.ID != "" {
		return c.Stamp, true
	}
	if c.Table == nil || c.Table.Len() == 0 {
		return Window{}, false
	}
	ws := c.Table.Windows()
	start, end := ws[0].Start, ws[0].End
	for _, w := range ws[1:] {
		if w.Start.Before(start) {
			start = w.Start
		}
		if w.End.After(end) {
			end = w.End
		}
	}
	return Window{ID: StampWindowID, Label: stampLabel, Start: start, End: end}, true
}

// DefaultCalendar is the built-in 2026 retreat calendar.
func DefaultCalendar() *Calendar {
	return &Calendar{
		Table:         DefaultTable(),
		Forms:         DefaultFormsActivation(),
		TimetableDays: DefaultTimetableDays(),
		Location:      Seoul,
	}
}

type cueSchedule struct {
	Timezone      string         `json:"timezone"`
	Windows       []cueWindow    `json:"windows"`
	Activation    *cueActivation `json:"activation,omitempty"`
	TimetableDays []cueDay       `json:"timetable_days,omitempty"`
	StampWindow   *cueWindow     `json:"stamp_window,omitempty"`
}

type cueWindow struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type cueActivation struct {
	Date string `json:"date"`
	Hour int    `json:"hour"`
}

type cueDay struct {
	Key  string `json:"key"`
	Date string `json:"date"`
}

// LoadCUE reads a schedule file written in CUE. The file must define a
// top-level `schedule` value; it is unified with the embedded schema and
// must be concrete before it is decoded.
func LoadCUE(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	return ParseCUE(path, data)
}

// ParseCUE is LoadCUE for in-memory sources. filename is used for positions.
func ParseCUE(filename string, data []byte) (*Calendar, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schedule schema: %w", err)
	}

	src := ctx.CompileBytes(data, cue.Filename(filename))
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("compile schedule: %w", err)
	}

	value := schema.Unify(src)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate schedule: %w", err)
	}

	var raw cueSchedule
	if err := value.LookupPath(cue.ParsePath("schedule")).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}

	return raw.toCalendar()
}

func (raw cueSchedule) toCalendar() (*Calendar, error) {
	loc := Seoul
	if raw.Timezone != "" && raw.Timezone != "Asia/Seoul" {
		l, err := time.LoadLocation(raw.Timezone)
		if err != nil {
			return nil, fmt.Errorf("schedule timezone %q: %w", raw.Timezone, err)
		}
		loc = l
	}

	if len(raw.Windows) == 0 {
		return nil, fmt.Errorf("schedule: at least one window is required")
	}

	windows := make([]Window, 0, len(raw.Windows))
	for _, rw := range raw.Windows {
		start, err := ParseInstant(rw.Start, loc)
		if err != nil {
			return nil, fmt.Errorf("window %q start: %w", rw.ID, err)
		}
		end, err := ParseInstant(rw.End, loc)
		if err != nil {
			return nil, fmt.Errorf("window %q end: %w", rw.ID, err)
		}
		w, err := NewWindow(rw.ID, rw.Label, start, end)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	table, err := NewTable(windows...)
	if err != nil {
		return nil, err
	}

	cal := &Calendar{Table: table, Location: loc}

	if raw.Activation != nil {
		d, err := time.ParseInLocation("2006-01-02", raw.Activation.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("activation date: %w", err)
		}
		cal.Forms, err = NewActivation(d.Year(), d.Month(), d.Day(), raw.Activation.Hour, loc)
		if err != nil {
			return nil, err
		}
	} else {
		cal.Forms = DefaultFormsActivation()
	}

	if len(raw.TimetableDays) > 0 {
		for _, rd := range raw.TimetableDays {
			d, err := time.ParseInLocation("2006-01-02", rd.Date, loc)
			if err != nil {
				return nil, fmt.Errorf("timetable day %q: %w", rd.Key, err)
			}
			cal.TimetableDays = append(cal.TimetableDays, Day{Key: rd.Key, Date: d})
		}
	} else {
		cal.TimetableDays = DefaultTimetableDays()
	}

	if sw := raw.StampWindow; sw != nil {
		start, err := ParseInstant(sw.Start, loc)
		if err != nil {
			return nil, fmt.Errorf("stamp window start: %w", err)
		}
		end, err := ParseInstant(sw.End, loc)
		if err != nil {
			return nil, fmt.Errorf("stamp window end: %w", err)
		}
		label := sw.Label
		if label == "" {
			label = stampLabel
		}
		if cal.Stamp, err = NewWindow(StampWindowID, label, start, end); err != nil {
			return nil, err
		}
	}

	return cal, nil
}

var localLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseInstant parses RFC3339, or a local "YYYY-MM-DDTHH:MM[:SS]" in loc.
// A clock of "24:00" means midnight at the end of that day.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	var endOfDay bool
	if i := strings.IndexAny(s, "T "); i > 0 && strings.HasPrefix(s[i+1:], "24:00") {
		endOfDay = true
		s = s[:i+1] + "00:00" + s[i+6:]
	}

	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if endOfDay {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized instant %q", s)
}
