package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/retreat/internal/catalog"
	"github.com/roach88/retreat/internal/share"
	"github.com/roach88/retreat/internal/testutil"
)

const (
	day1Morning = "2026-01-12T09:00"
	formsOpen   = "2026-01-14T11:00"
)

// cliEnv is one profile: a temp database and a fixture data directory.
type cliEnv struct {
	dir  string
	db   string
	data string
}

func newEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(data, 0o755))
	testutil.WriteDataDir(t, data)
	return cliEnv{dir: dir, db: filepath.Join(dir, "retreat.db"), data: data}
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// run executes the CLI at now with JSON output and returns the decoded
// envelope and the exit code.
func (e cliEnv) run(t *testing.T, now string, args ...string) (envelope, int) {
	t.Helper()
	stdout, code := e.runRaw(t, now, append([]string{"--format", "json"}, args...)...)
	var env envelope
	if stdout != "" {
		require.NoError(t, json.Unmarshal([]byte(stdout), &env), "stdout: %s", stdout)
	}
	return env, code
}

func (e cliEnv) runRaw(t *testing.T, now string, args ...string) (string, int) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{
		"--db", e.db,
		"--data", e.data,
		"--schedule", "testdata/schedule.cue",
		"--now", now,
	}, args...))

	err := cmd.Execute()
	if err != nil {
		return out.String(), GetExitCode(err)
	}
	return out.String(), ExitSuccess
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := make(map[string]bool)
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"status", "onboard", "missions", "mission", "stamp", "timetable", "group",
		"share", "testimony", "survey", "check", "watch", "tui", "reset", "scenario",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	e := newEnv(t)
	_, code := e.runRaw(t, day1Morning, "--format", "yaml", "status")
	assert.Equal(t, ExitCommandError, code)
}

func TestStatus_DayOne(t *testing.T) {
	e := newEnv(t)
	env, code := e.run(t, day1Morning, "status")
	require.Equal(t, ExitSuccess, code)
	require.Equal(t, "ok", env.Status)

	res := decode[StatusResult](t, env)
	assert.Equal(t, "1", res.CurrentDay)
	require.Len(t, res.Days, 3)
	assert.Equal(t, "active", res.Days[0].Status)
	assert.True(t, res.Days[0].Current)
	assert.Equal(t, "locked", res.Days[1].Status)
	assert.Equal(t, "DAY 2은 1월 13일 오전 7시에 열립니다 🔒", res.Days[1].Notice)
	assert.Equal(t, 5, res.Missions.Total)
	assert.False(t, res.Forms.Open)
	assert.Equal(t, "writing", res.Forms.Testimony)
	assert.False(t, res.CanShare)
}

func TestStatus_TextOutput(t *testing.T) {
	e := newEnv(t)
	out, code := e.runRaw(t, day1Morning, "status")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "retreat onboard")
	assert.Contains(t, out, "Missions: 0/5")
}

func TestOnboard(t *testing.T) {
	e := newEnv(t)
	env, code := e.run(t, day1Morning, "onboard", "지민")
	require.Equal(t, ExitSuccess, code)
	res := decode[map[string]any](t, env)
	assert.Equal(t, map[string]any{"user_name": "지민"}, res["result"])

	env, _ = e.run(t, day1Morning, "status")
	assert.Equal(t, "지민", decode[StatusResult](t, env).UserName)
}

func TestMissionToggle(t *testing.T) {
	e := newEnv(t)

	env, code := e.run(t, day1Morning, "mission", "toggle", "2")
	require.Equal(t, ExitSuccess, code)
	var res struct {
		Result MissionsResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.Result.Progress.Completed)
	require.Len(t, res.Result.Missions, 3)
	assert.True(t, res.Result.Missions[1].Done)

	// Persisted across runs.
	env, code = e.run(t, day1Morning, "missions")
	require.Equal(t, ExitSuccess, code)
	assert.True(t, decode[MissionsResult](t, env).Missions[1].Done)
}

func TestMissionToggle_Refusals(t *testing.T) {
	e := newEnv(t)

	env, code := e.run(t, day1Morning, "mission", "toggle", "--day", "2", "4")
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeLocked, env.Error.Code)
	assert.Equal(t, "DAY 2은 1월 13일 오전 7시에 열립니다 🔒", env.Error.Message)

	env, code = e.run(t, day1Morning, "mission", "toggle", "4")
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeValidation, env.Error.Code)

	_, code = e.runRaw(t, day1Morning, "mission", "toggle", "two")
	assert.Equal(t, ExitCommandError, code)
}

func TestMissions_ExpiredDay(t *testing.T) {
	e := newEnv(t)
	env, code := e.run(t, "2026-01-13T09:00", "missions", "--day", "1")
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeExpired, env.Error.Code)
}

func TestStamp_Lifecycle(t *testing.T) {
	e := newEnv(t)

	env, code := e.run(t, day1Morning, "stamp", "configure", "praise", "하늘", "2")
	require.Equal(t, ExitSuccess, code)
	var res struct {
		Result StampItem `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "configured", res.Result.State)
	assert.Equal(t, "하늘", res.Result.Target)
	assert.Equal(t, 1, res.Result.Option)

	photo := filepath.Join(e.dir, "photo.png")
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	require.NoError(t, os.WriteFile(photo, png, 0o644))
	env, code = e.run(t, day1Morning, "stamp", "photo", "praise", photo)
	require.Equal(t, ExitSuccess, code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "photo_attached", res.Result.State)
	assert.True(t, res.Result.Photo)

	env, code = e.run(t, day1Morning, "stamp", "complete", "praise")
	require.Equal(t, ExitSuccess, code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "completed", res.Result.State)

	env, code = e.run(t, day1Morning, "stamp", "configure", "praise", "지민", "1")
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeValidation, env.Error.Code)

	env, code = e.run(t, day1Morning, "stamp", "list")
	require.Equal(t, ExitSuccess, code)
	list := decode[StampsResult](t, env)
	assert.Equal(t, 1, list.Progress.Completed)
	require.Len(t, list.Stamps, 3)
	assert.Equal(t, "locked", list.Stamps[1].Status)
}

func TestStamp_ListBeforeOpen(t *testing.T) {
	e := newEnv(t)
	out, code := e.runRaw(t, "2026-01-12T06:59:59.999", "stamp", "list")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "DAY 1은 1월 12일 오전 7시에 열립니다 🔒")
	assert.Contains(t, out, "스탬프 활동은 1월 12일 오전 7시에 열립니다 🔒")
	assert.NotContains(t, out, "1. 장점 세 가지 말하기")
	assert.NotContains(t, out, "1. 같이 밥 먹기")

	env, code := e.run(t, "2026-01-12T06:59:59.999", "stamp", "list")
	require.Equal(t, ExitSuccess, code)
	list := decode[StampsResult](t, env)
	for _, it := range list.Stamps {
		assert.Equal(t, "locked", it.Status, it.ID)
		assert.NotEmpty(t, it.Notice, it.ID)
	}

	env, code = e.run(t, "2026-01-12T06:59:59.999", "stamp", "configure", "meal", "하늘", "1")
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeLocked, env.Error.Code)
}

func TestStamp_PhotoMissingFile(t *testing.T) {
	e := newEnv(t)
	_, code := e.runRaw(t, day1Morning, "stamp", "photo", "praise", filepath.Join(e.dir, "nope.jpg"))
	assert.Equal(t, ExitCommandError, code)
}

func TestPhotoDataURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, 0o644))

	url, err := photoDataURL(path)
	require.NoError(t, err)
	assert.Contains(t, url, "data:image/png;base64,")
}

func TestTestimony_BeforeFormsOpen(t *testing.T) {
	e := newEnv(t)
	env, code := e.run(t, day1Morning, "testimony", "draft", "은혜")
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeLocked, env.Error.Code)
	details, ok := env.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2026-01-14T11:00:00+09:00", details["unlock_at"])
}

func TestTestimony_SubmitAndEdit(t *testing.T) {
	e := newEnv(t)

	_, code := e.run(t, formsOpen, "testimony", "draft", "초안")
	require.Equal(t, ExitSuccess, code)
	env, _ := e.run(t, formsOpen, "testimony", "show")
	res := decode[TestimonyResult](t, env)
	assert.Equal(t, "writing", res.Mode)
	assert.Equal(t, "초안", res.Text)

	_, code = e.run(t, formsOpen, "testimony", "submit", "받은", "은혜")
	require.Equal(t, ExitSuccess, code)
	env, _ = e.run(t, formsOpen, "testimony", "show")
	res = decode[TestimonyResult](t, env)
	assert.Equal(t, "submitted", res.Mode)
	assert.Equal(t, "받은 은혜", res.Text)

	_, code = e.run(t, formsOpen, "testimony", "edit", "고친", "간증")
	require.Equal(t, ExitSuccess, code)
	env, _ = e.run(t, formsOpen, "testimony", "show")
	res = decode[TestimonyResult](t, env)
	assert.Equal(t, "submitted", res.Mode)
	assert.Equal(t, "고친 간증", res.Text)
}

func TestSurvey(t *testing.T) {
	e := newEnv(t)

	env, code := e.run(t, formsOpen, "survey", "--best", "조별 모임")
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeValidation, env.Error.Code)
	assert.Equal(t, "만족도를 선택해주세요", env.Error.Message)

	env, code = e.run(t, formsOpen, "survey", "--satisfaction", "5", "--best", "조별 모임")
	require.Equal(t, ExitSuccess, code)
	res := decode[map[string]any](t, env)
	assert.Equal(t, "설문이 제출되었습니다! 감사합니다 🙏", res["notice"])
}

func TestShare_BelowThreshold(t *testing.T) {
	e := newEnv(t)
	env, code := e.run(t, day1Morning, "share", "--no-qr", "--no-clipboard", "--out", e.dir)
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeValidation, env.Error.Code)
}

func TestShare_FileFallback(t *testing.T) {
	e := newEnv(t)
	for _, id := range []string{"1", "2", "3"} {
		_, code := e.run(t, day1Morning, "mission", "toggle", id)
		require.Equal(t, ExitSuccess, code)
	}

	env, code := e.run(t, day1Morning, "share", "--no-qr", "--no-clipboard", "--out", e.dir)
	require.Equal(t, ExitSuccess, code)
	var res struct {
		Result ShareResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, share.PathFile, res.Result.Path)

	data, err := os.ReadFile(filepath.Join(e.dir, share.DefaultFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "아침 기도")
}

func TestGroup(t *testing.T) {
	e := newEnv(t)

	env, code := e.run(t, day1Morning, "group", "이지민", "4321")
	require.Equal(t, ExitSuccess, code)
	res := decode[GroupResult](t, env)
	assert.True(t, res.Found)
	assert.Equal(t, "1조", res.Group)
	assert.Equal(t, "김하늘", res.Leader)
	assert.Equal(t, "302호", res.Room)
	assert.NotContains(t, string(env.Data), "010-")

	env, code = e.run(t, day1Morning, "group", "이지민", "0000")
	require.Equal(t, ExitSuccess, code)
	res = decode[GroupResult](t, env)
	assert.False(t, res.Found)
	assert.Equal(t, notFoundNotice, res.Notice)

	env, code = e.run(t, day1Morning, "group", "이지민", "12")
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeValidation, env.Error.Code)
}

func TestTimetable(t *testing.T) {
	e := newEnv(t)

	env, code := e.run(t, day1Morning, "timetable", "day1")
	require.Equal(t, ExitSuccess, code)
	res := decode[TimetableResult](t, env)
	assert.Equal(t, "day1", res.Key)
	assert.True(t, res.Today)
	assert.Equal(t, []string{"day1", "day2", "day3"}, res.Tabs)
	require.Len(t, res.Slots, 4)
	assert.Equal(t, catalog.SlotPast, res.Slots[0].State)
	assert.Equal(t, catalog.SlotCurrent, res.Slots[1].State)
	assert.Equal(t, catalog.SlotUpcoming, res.Slots[2].State)

	_, code = e.run(t, day1Morning, "timetable", "day9")
	assert.Equal(t, ExitCommandError, code)
}

func TestCheck(t *testing.T) {
	e := newEnv(t)
	env, code := e.run(t, day1Morning, "check")
	require.Equal(t, ExitSuccess, code)
	res := decode[CheckResult](t, env)
	assert.Equal(t, 5, res.Missions)
	assert.Equal(t, 3, res.Activities)
	assert.Equal(t, []string{"1", "2", "3"}, res.Windows)

	require.NoError(t, os.WriteFile(filepath.Join(e.data, "missions.json"), []byte("{"), 0o644))
	env, code = e.run(t, day1Morning, "check")
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeDataLoad, env.Error.Code)
}

func TestCheck_BadSchedule(t *testing.T) {
	e := newEnv(t)
	bad := filepath.Join(e.dir, "bad.cue")
	require.NoError(t, os.WriteFile(bad, []byte("schedule: {"), 0o644))
	_, code := e.runRaw(t, day1Morning, "--schedule", bad, "check")
	assert.Equal(t, ExitCommandError, code)
}

func TestReset(t *testing.T) {
	e := newEnv(t)
	_, code := e.run(t, day1Morning, "onboard", "지민")
	require.Equal(t, ExitSuccess, code)

	_, code = e.runRaw(t, day1Morning, "reset")
	assert.Equal(t, ExitCommandError, code)

	_, code = e.runRaw(t, day1Morning, "reset", "--yes")
	require.Equal(t, ExitSuccess, code)

	env, _ := e.run(t, day1Morning, "status")
	assert.Empty(t, decode[StatusResult](t, env).UserName)
}

func TestScenarioCommand(t *testing.T) {
	e := newEnv(t)
	out, code := e.runRaw(t, day1Morning, "scenario", "../harness/testdata/scenarios", "--filter", "midnight_*")
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "✓ midnight_rollover.yaml")
	assert.Contains(t, out, "Scenario Summary: 1 passed, 0 failed, 1 total")

	_, code = e.runRaw(t, day1Morning, "scenario", filepath.Join(e.dir, "missing"))
	assert.Equal(t, ExitCommandError, code)
}
