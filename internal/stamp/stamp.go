// Package stamp implements the per-activity stamp collection workflow.
//
// Each activity has at most one Entry. Its State is derived from the entry:
//
//	NotStarted --Configure--> Configured --AttachPhoto--> PhotoAttached
//	Configured --Configure--> Configured (overwrite while not completed)
//	PhotoAttached --RemovePhoto--> Configured
//	Configured | PhotoAttached --Complete--> Completed (terminal)
//
// Completing without a photo is allowed. Time-window gating is not handled
// here; the engine checks the owning activity's window before calling in.
package stamp

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// State is the derived progress state of an activity.
type State int

const (
	NotStarted State = iota
	Configured
	PhotoAttached
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Configured:
		return "configured"
	case PhotoAttached:
		return "photo_attached"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Entry is one user's progress on one activity. Field names match the
// persisted document.
type Entry struct {
	TargetName          string `json:"targetName"`
	SelectedOptionIndex int    `json:"selectedOptionIndex"`
	PhotoData           string `json:"photoData,omitempty"`
	Completed           bool   `json:"completed"`
}

// State derives the workflow state from the entry's fields.
func (e Entry) State() State {
	switch {
	case e.Completed:
		return Completed
	case e.PhotoData != "":
		return PhotoAttached
	default:
		return Configured
	}
}

// NoOption marks an unselected mission option.
const NoOption = -1

// ErrCompleted is returned for any edit attempted on a completed entry.
var ErrCompleted = errors.New("stamp already completed")

// ValidationError reports missing or invalid input. Reason is a stable key:
// "target_name", "option", "photo" or "not_configured".
type ValidationError struct {
	ActivityID string
	Reason     string
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("stamp %s: %s", e.ActivityID, e.Message)
}

// Validation reasons.
const (
	ReasonTargetName    = "target_name"
	ReasonOption        = "option"
	ReasonPhoto         = "photo"
	ReasonNotConfigured = "not_configured"
)

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NormalizeName trims and NFC-normalizes a target name so Hangul composed on
// different keyboards compares equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
