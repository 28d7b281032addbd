package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/roach88/retreat/internal/catalog"
	"github.com/roach88/retreat/internal/engine"
	"github.com/roach88/retreat/internal/share"
	"github.com/roach88/retreat/internal/stamp"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Refused action (locked, expired, invalid input) or failed scenarios
	ExitCommandError = 2 // Command error (bad flags, unreadable database or schedule)
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeLocked     = "E201"
	ErrCodeExpired    = "E202"
	ErrCodeValidation = "E203"
	ErrCodeDataLoad   = "E204"
	ErrCodeShare      = "E205"
	ErrCodeGeneric    = "E299"
)

// ErrorCode maps a domain error to its CLI error code.
func ErrorCode(err error) string {
	switch {
	case engine.IsLockedError(err):
		return ErrCodeLocked
	case engine.IsExpiredError(err):
		return ErrCodeExpired
	case engine.IsValidationError(err), errors.Is(err, stamp.ErrCompleted), isLookupError(err):
		return ErrCodeValidation
	case catalog.IsDataLoadError(err):
		return ErrCodeDataLoad
	case share.IsFailedError(err):
		return ErrCodeShare
	default:
		return ErrCodeGeneric
	}
}

func isLookupError(err error) bool {
	var le *catalog.LookupError
	return errors.As(err, &le)
}

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the error was already written by an
	// OutputFormatter and must not be printed again.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string      `json:"status"`            // "ok" or "error"
	Data    interface{} `json:"data,omitempty"`    // success payload
	Error   *CLIError   `json:"error,omitempty"`   // error details
	TraceID string      `json:"trace_id,omitempty"` // optional trace correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E002", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Render writes data as the JSON envelope, or calls text for human output.
func (f *OutputFormatter) Render(data interface{}, text func(w io.Writer)) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	text(f.Writer)
	return nil
}

// Fail reports err in the configured format and returns the ExitError the
// command should return. Refusals carry their user-facing notice as the
// message.
func (f *OutputFormatter) Fail(err error) error {
	code := ErrorCode(err)
	message := engine.NoticeFor(err)
	switch {
	case message != "":
	case code == ErrCodeShare:
		message = share.NoticeFailed
	default:
		message = err.Error()
	}

	var details interface{}
	var ge *engine.GateError
	if errors.As(err, &ge) {
		d := map[string]string{"window": ge.WindowID}
		if !ge.UnlockAt.IsZero() {
			d["unlock_at"] = ge.UnlockAt.Format(time.RFC3339)
		}
		details = d
	}
	_ = f.Error(code, message, details)

	exit := ExitFailure
	if code == ErrCodeGeneric {
		exit = ExitCommandError
	}
	return &ExitError{Code: exit, Message: code, Err: err, Reported: true}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
