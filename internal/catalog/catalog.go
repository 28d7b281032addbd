package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// Default document names inside the data directory.
const (
	MissionsFile   = "missions.json"
	ActivitiesFile = "activities.json"
	TimetableFile  = "timetable.json"
	GroupsFile     = "groups.json"
)

// DataLoadError reports a static document that was missing or malformed.
type DataLoadError struct {
	Path string
	Err  error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// IsDataLoadError reports whether err is (or wraps) a *DataLoadError.
func IsDataLoadError(err error) bool {
	var de *DataLoadError
	return errors.As(err, &de)
}

// Mission is one checklist item, shown on its day.
type Mission struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Day   int    `json:"day"`
}

// DayID is the schedule window ID the mission belongs to.
func (m Mission) DayID() string {
	return strconv.Itoa(m.Day)
}

// Activity is one stamp activity with its fixed list of mission texts.
// Window names the schedule window that gates it; empty means the
// catalog-wide stamp window.
type Activity struct {
	ID          string   `json:"id"`
	Emoji       string   `json:"emoji"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Missions    []string `json:"missions"`
	Window      string   `json:"window,omitempty"`
}

type missionsDoc struct {
	Missions []Mission `json:"missions"`
}

type activitiesDoc struct {
	Activities []Activity `json:"activities"`
}

// LoadMissions decodes a missions document. On any failure it returns an
// empty slice and a *DataLoadError.
func LoadMissions(path string) ([]Mission, error) {
	var doc missionsDoc
	if err := decodeFile(path, &doc); err != nil {
		return []Mission{}, err
	}
	seen := make(map[int]bool, len(doc.Missions))
	for i, m := range doc.Missions {
		if m.ID == 0 || m.Title == "" || m.Day == 0 {
			return []Mission{}, &DataLoadError{Path: path, Err: fmt.Errorf("missions[%d]: id, title and day are required", i)}
		}
		if seen[m.ID] {
			return []Mission{}, &DataLoadError{Path: path, Err: fmt.Errorf("missions[%d]: duplicate id %d", i, m.ID)}
		}
		seen[m.ID] = true
	}
	if doc.Missions == nil {
		doc.Missions = []Mission{}
	}
	return doc.Missions, nil
}

// LoadActivities decodes an activities document. On any failure it returns
// an empty slice and a *DataLoadError.
func LoadActivities(path string) ([]Activity, error) {
	var doc activitiesDoc
	if err := decodeFile(path, &doc); err != nil {
		return []Activity{}, err
	}
	seen := make(map[string]bool, len(doc.Activities))
	for i, a := range doc.Activities {
		if a.ID == "" || a.Name == "" || len(a.Missions) == 0 {
			return []Activity{}, &DataLoadError{Path: path, Err: fmt.Errorf("activities[%d]: id, name and missions are required", i)}
		}
		if seen[a.ID] {
			return []Activity{}, &DataLoadError{Path: path, Err: fmt.Errorf("activities[%d]: duplicate id %q", i, a.ID)}
		}
		seen[a.ID] = true
	}
	if doc.Activities == nil {
		doc.Activities = []Activity{}
	}
	return doc.Activities, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &DataLoadError{Path: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &DataLoadError{Path: path, Err: err}
	}
	return nil
}

// Catalog bundles every static document of one data directory.
type Catalog struct {
	Missions   []Mission
	Activities []Activity
	Timetable  Timetable
	Groups     Groups

	// Problems lists the documents that fell back to empty.
	Problems []error
}

// Load reads every document under dir. It never fails: unreadable or
// malformed documents are logged, recorded in Problems and left empty.
func Load(dir string) *Catalog {
	c := &Catalog{}
	var err error

	c.Missions, err = LoadMissions(filepath.Join(dir, MissionsFile))
	c.note(err)
	c.Activities, err = LoadActivities(filepath.Join(dir, ActivitiesFile))
	c.note(err)
	c.Timetable, err = LoadTimetable(filepath.Join(dir, TimetableFile))
	c.note(err)
	c.Groups, err = LoadGroups(filepath.Join(dir, GroupsFile))
	c.note(err)

	slog.Debug("catalog loaded",
		"dir", dir,
		"missions", len(c.Missions),
		"activities", len(c.Activities),
		"timetable_days", len(c.Timetable),
		"groups", len(c.Groups.Groups),
		"problems", len(c.Problems),
	)
	return c
}

func (c *Catalog) note(err error) {
	if err == nil {
		return
	}
	slog.Warn("static data unavailable, using empty set", "error", err)
	c.Problems = append(c.Problems, err)
}

// MissionsForDay filters missions by schedule window ID, preserving order.
func (c *Catalog) MissionsForDay(dayID string) []Mission {
	var out []Mission
	for _, m := range c.Missions {
		if m.DayID() == dayID {
			out = append(out, m)
		}
	}
	return out
}

// Mission looks up a mission by ID.
func (c *Catalog) Mission(id int) (Mission, bool) {
	for _, m := range c.Missions {
		if m.ID == id {
			return m, true
		}
	}
	return Mission{}, false
}

// Activity looks up a stamp activity by ID.
func (c *Catalog) Activity(id string) (Activity, bool) {
	for _, a := range c.Activities {
		if a.ID == id {
			return a, true
		}
	}
	return Activity{}, false
}
