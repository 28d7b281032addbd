package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/retreat/internal/schedule"
	"github.com/roach88/retreat/internal/stamp"
)

// GateError reports an interaction attempted on a window that is not
// active. Notice is the Korean message shown to the user.
type GateError struct {
	// Code identifies which side of the window the attempt fell on.
	Code GateCode

	// WindowID names the gating window ("forms" for the form activation).
	WindowID string

	// UnlockAt is set for GateLocked.
	UnlockAt time.Time

	Notice string
}

// GateCode categorizes gate rejections.
type GateCode string

const (
	// GateLocked indicates the window has not opened yet.
	GateLocked GateCode = "GATE_LOCKED"

	// GateExpired indicates the window has closed.
	GateExpired GateCode = "GATE_EXPIRED"
)

// FormsWindowID is the WindowID used for testimony and survey gating.
const FormsWindowID = "forms"

// Error implements the error interface.
func (e *GateError) Error() string {
	if e.Code == GateLocked && !e.UnlockAt.IsZero() {
		return fmt.Sprintf("%s: window %s opens at %s", e.Code, e.WindowID, e.UnlockAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("%s: window %s", e.Code, e.WindowID)
}

// NewLockedError creates a GateError for a window that has not started.
func NewLockedError(w schedule.Window) *GateError {
	return &GateError{
		Code:     GateLocked,
		WindowID: w.ID,
		UnlockAt: w.Start,
		Notice:   schedule.LockedNotice(w),
	}
}

// NewExpiredError creates a GateError for a window that has ended.
func NewExpiredError(w schedule.Window) *GateError {
	return &GateError{
		Code:     GateExpired,
		WindowID: w.ID,
		Notice:   schedule.ExpiredNotice(w),
	}
}

// IsGateError returns true if err is (or wraps) a *GateError.
func IsGateError(err error) bool {
	var ge *GateError
	return errors.As(err, &ge)
}

// IsLockedError returns true if err is a GateLocked rejection.
func IsLockedError(err error) bool {
	var ge *GateError
	if errors.As(err, &ge) {
		return ge.Code == GateLocked
	}
	return false
}

// IsExpiredError returns true if err is a GateExpired rejection.
func IsExpiredError(err error) bool {
	var ge *GateError
	if errors.As(err, &ge) {
		return ge.Code == GateExpired
	}
	return false
}

// ValidationError reports missing or invalid user input outside the stamp
// state machine. Reason is a stable key; Notice is shown to the user.
type ValidationError struct {
	Reason string
	Notice string
}

// Validation reasons.
const (
	ReasonUserName        = "user_name"
	ReasonText            = "text"
	ReasonSatisfaction    = "satisfaction"
	ReasonUnknownDay      = "unknown_day"
	ReasonUnknownMission  = "unknown_mission"
	ReasonMissionDay      = "mission_day"
	ReasonUnknownActivity = "unknown_activity"
	ReasonNotSubmitted    = "not_submitted"
	ReasonProgress        = "progress"
)

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Reason, e.Notice)
}

// IsValidationError returns true for engine and stamp validation errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return stamp.IsValidationError(err)
}

// NoticeFor returns the user-facing message carried by err, or "" when err
// carries none.
func NoticeFor(err error) string {
	var ge *GateError
	if errors.As(err, &ge) {
		return ge.Notice
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Notice
	}
	var se *stamp.ValidationError
	if errors.As(err, &se) {
		return se.Message
	}
	if errors.Is(err, stamp.ErrCompleted) {
		return "이미 완료된 미션입니다"
	}
	return ""
}
