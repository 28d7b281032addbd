package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/retreat/internal/engine"
)

func resultWith(signals ...engine.Signal) *Result {
	r := NewResult()
	for i, sig := range signals {
		sig.Seq = int64(i + 1)
		r.AddSignalTrace(0, sig)
	}
	return r
}

func TestAssertSignalContains(t *testing.T) {
	r := resultWith(
		engine.Signal{Kind: engine.SignalTransition, Activity: "praise", From: "not_started", To: "configured"},
		engine.Signal{Kind: engine.SignalLocked, Window: "2", UnlockAt: "2026-01-13T07:00:00+09:00"},
	)

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertSignalContains, Kind: "transition", Fields: map[string]any{"activity": "praise", "to": "configured"}},
		{Type: AssertSignalContains, Kind: "locked", Fields: map[string]any{"window": "2"}},
		{Type: AssertSignalContains, Kind: "locked"},
	})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(r, []Assertion{
		{Type: AssertSignalContains, Kind: "transition", Fields: map[string]any{"to": "completed"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Assertion failed: signal_contains")
	assert.Contains(t, errs[0], "[1] transition activity=praise")
}

func TestAssertSignalContains_MissionNumber(t *testing.T) {
	r := resultWith(engine.Signal{Kind: engine.SignalMissionToggled, Mission: 3, To: "done"})
	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertSignalContains, Kind: "mission_toggled", Fields: map[string]any{"mission": 3}},
	})
	assert.Empty(t, errs)
}

func TestAssertSignalOrder(t *testing.T) {
	r := resultWith(
		engine.Signal{Kind: engine.SignalWindowChanged},
		engine.Signal{Kind: engine.SignalExpired},
		engine.Signal{Kind: engine.SignalLocked},
		engine.Signal{Kind: engine.SignalDaySwitched},
	)

	assert.Empty(t, EvaluateAssertions(r, []Assertion{
		{Type: AssertSignalOrder, Kinds: []string{"window_changed", "locked", "day_switched"}},
	}))

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertSignalOrder, Kinds: []string{"day_switched", "expired"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "then no expired")
}

func TestAssertSignalCount(t *testing.T) {
	r := resultWith(
		engine.Signal{Kind: engine.SignalTransition},
		engine.Signal{Kind: engine.SignalTransition},
	)

	assert.Empty(t, EvaluateAssertions(r, []Assertion{
		{Type: AssertSignalCount, Kind: "transition", Count: 2},
		{Type: AssertSignalCount, Kind: "all_completed", Count: 0},
	}))

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertSignalCount, Kind: "transition", Count: 1}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "2 signals")
}

func TestAssertFinalState(t *testing.T) {
	r := NewResult()
	r.State = map[string]any{
		"user_name":    "지민",
		"current_day":  "1",
		"day_missions": []int{1, 2},
		"forms_open":   false,
		"stamps": map[string]any{
			"praise": map[string]any{"target": "지민", "option": 2, "photo": true, "state": "completed"},
		},
	}

	assert.Empty(t, EvaluateAssertions(r, []Assertion{{
		Type: AssertFinalState,
		Expect: map[string]any{
			"user_name":    "지민",
			"day_missions": []any{1, 2},
			"forms_open":   false,
			"stamps":       map[string]any{"praise": map[string]any{"option": 2, "state": "completed"}},
		},
	}}))

	errs := EvaluateAssertions(r, []Assertion{{
		Type:   AssertFinalState,
		Expect: map[string]any{"current_day": "2"},
	}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "current_day = 2")

	errs = EvaluateAssertions(r, []Assertion{{
		Type:   AssertFinalState,
		Expect: map[string]any{"visitors": 1},
	}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `state key "visitors"`)
}

func TestValuesMatch_EmptyList(t *testing.T) {
	assert.True(t, valuesMatch([]any{}, []any{}))
	assert.True(t, valuesMatch(nil, []any{}))
	assert.False(t, valuesMatch([]any{1}, []any{}))
}
