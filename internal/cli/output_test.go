package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/retreat/internal/catalog"
	"github.com/roach88/retreat/internal/engine"
	"github.com/roach88/retreat/internal/schedule"
	"github.com/roach88/retreat/internal/share"
	"github.com/roach88/retreat/internal/stamp"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeLocked, "DAY 2은 1월 13일 오전 7시에 열립니다 🔒", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeLocked, resp.Error.Code)
	assert.Equal(t, "DAY 2은 1월 13일 오전 7시에 열립니다 🔒", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"window": "2", "unlock_at": "2026-01-13T07:00:00+09:00"}
	err := formatter.Error(ErrCodeLocked, "locked", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("✓ data ./data: 8 missions")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "8 missions")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error(ErrCodeLocked, "DAY 2은 1월 13일 오전 7시에 열립니다 🔒", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E201]")
	assert.Contains(t, buf.String(), "열립니다")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := []string{"load missions.json: unexpected EOF"}
	err := formatter.Error(ErrCodeDataLoad, "1 document(s) could not be loaded", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E204]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("opening %s", "retreat.db")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "opening retreat.db")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    ErrCodeValidation,
		Message: "만족도를 선택해주세요",
		Details: []string{"satisfaction"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, ErrCodeValidation, decoded.Code)
	assert.Equal(t, "만족도를 선택해주세요", decoded.Message)
}

func TestErrorCode(t *testing.T) {
	day2 := schedule.Window{
		ID:    "2",
		Label: "DAY 2",
		Start: time.Date(2026, 1, 13, 7, 0, 0, 0, schedule.Seoul),
		End:   time.Date(2026, 1, 14, 0, 0, 0, 0, schedule.Seoul),
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"locked", engine.NewLockedError(day2), ErrCodeLocked},
		{"expired", engine.NewExpiredError(day2), ErrCodeExpired},
		{"validation", &engine.ValidationError{Reason: engine.ReasonText, Notice: "내용을 입력해주세요"}, ErrCodeValidation},
		{"stamp completed", fmt.Errorf("configure: %w", stamp.ErrCompleted), ErrCodeValidation},
		{"lookup", &catalog.LookupError{Field: "phone"}, ErrCodeValidation},
		{"data load", &catalog.DataLoadError{Path: "missions.json", Err: errors.New("boom")}, ErrCodeDataLoad},
		{"share", &share.FailedError{Err: errors.New("no target")}, ErrCodeShare},
		{"other", errors.New("disk full"), ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
		wantExit int
	}{
		{
			name:     "validation notice",
			err:      &engine.ValidationError{Reason: engine.ReasonSatisfaction, Notice: "만족도를 선택해주세요"},
			wantCode: ErrCodeValidation,
			wantMsg:  "만족도를 선택해주세요",
			wantExit: ExitFailure,
		},
		{
			name:     "share failure",
			err:      &share.FailedError{Err: errors.New("no target")},
			wantCode: ErrCodeShare,
			wantMsg:  share.NoticeFailed,
			wantExit: ExitFailure,
		},
		{
			name:     "generic",
			err:      errors.New("disk full"),
			wantCode: ErrCodeGeneric,
			wantMsg:  "disk full",
			wantExit: ExitCommandError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "json", Writer: buf}

			err := f.Fail(tt.err)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.True(t, exitErr.Reported)
			assert.Equal(t, tt.wantExit, exitErr.Code)
			assert.ErrorIs(t, err, tt.err)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
		})
	}
}

func TestOutputFormatter_FailGateDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}
	unlock := time.Date(2026, 1, 14, 11, 0, 0, 0, schedule.Seoul)

	_ = f.Fail(&engine.GateError{Code: engine.GateLocked, WindowID: engine.FormsWindowID, UnlockAt: unlock, Notice: "곧 열립니다"})

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, map[string]any{
		"window":    "forms",
		"unlock_at": "2026-01-14T11:00:00+09:00",
	}, resp.Error.Details)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", WrapExitError(ExitFailure, "refused", errors.New("x")))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}
