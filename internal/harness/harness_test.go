package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, content string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(content))
	require.NoError(t, err)
	return s
}

func TestRun_PassingScenario(t *testing.T) {
	s := mustParse(t, `
name: toggle
now: 2026-01-12T09:00
flow:
  - invoke: toggle_mission
    args: { id: 1 }
  - invoke: toggle_mission
    args: { id: 1 }
  - invoke: toggle_mission
    args: { id: 3 }
assertions:
  - type: signal_count
    kind: mission_toggled
    count: 3
  - type: final_state
    expect:
      day_missions: [3]
      progress: 1/5
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	// action, signal, result per step
	require.Len(t, result.Trace, 9)
	assert.Equal(t, EventAction, result.Trace[0].Type)
	assert.Equal(t, EventSignal, result.Trace[1].Type)
	assert.Equal(t, EventResult, result.Trace[2].Type)
	assert.Equal(t, CaseOK, result.Trace[2].Case)
	assert.Equal(t, "미션 완료를 취소했습니다", result.Trace[4].Signal.Notice)
}

func TestRun_ReportsCaseMismatch(t *testing.T) {
	s := mustParse(t, `
name: mismatch
now: 2026-01-12T09:00
flow:
  - invoke: switch_day
    args: { day: "2" }
  - invoke: switch_day
    args: { day: "1" }
    expect:
      case: locked
      notice: "wrong"
assertions:
  - type: signal_count
    kind: locked
    count: 1
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "flow[0] switch_day: expected case ok, got locked")
	assert.Contains(t, result.Errors[1], "flow[1] switch_day: expected case locked, got ok")
	assert.Contains(t, result.Errors[2], `expected notice "wrong", got ""`)
}

func TestRun_BadArgumentIsHarnessError(t *testing.T) {
	s := mustParse(t, `
name: bad_arg
now: 2026-01-12T09:00
flow:
  - invoke: toggle_mission
    args: { id: one }
assertions:
  - type: signal_count
    kind: mission_toggled
    count: 0
`)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `arg "id": want integer`)
}

func TestRun_InvalidNow(t *testing.T) {
	s := mustParse(t, `
name: bad_now
now: tomorrow
flow: [{ invoke: tick }]
assertions: [{ type: signal_count, kind: expired }]
`)
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid now")
}

func TestRun_ReloadKeepsSequence(t *testing.T) {
	s := mustParse(t, `
name: reload_seq
now: 2026-01-12T09:00
flow:
  - invoke: onboard
    args: { name: 지민 }
  - invoke: reload
  - invoke: toggle_mission
    args: { id: 2 }
assertions:
  - type: final_state
    expect:
      user_name: 지민
      day_missions: [2]
`)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	signals := result.Signals()
	require.Len(t, signals, 2)
	assert.Equal(t, int64(1), signals[0].Seq)
	assert.Equal(t, int64(2), signals[1].Seq)
}

func TestRun_IsDeterministic(t *testing.T) {
	s := mustParse(t, `
name: deterministic
now: 2026-01-12T23:00
flow:
  - invoke: configure_stamp
    args: { activity: praise, target: 지민, option: 0 }
  - invoke: advance
    args: { by: 1h }
  - invoke: tick
  - invoke: complete_stamp
    args: { activity: praise }
    expect: { case: expired }
assertions:
  - type: signal_order
    kinds: [transition, window_changed, expired, expired]
`)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalTrace(TraceSnapshot{ScenarioName: s.Name, Trace: first.Trace})
	require.NoError(t, err)
	b, err := MarshalTrace(TraceSnapshot{ScenarioName: s.Name, Trace: second.Trace})
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.True(t, first.Pass, "errors: %v", first.Errors)
}
