// Package catalog loads the static data documents the companion renders:
// checklist missions, stamp activities, the timetable and group rosters.
//
// A document that cannot be read or decoded never stops the app. Load
// records a *DataLoadError, logs it and continues with an empty data set,
// so the UI shows "no missions" rather than failing.
package catalog
