package harness

import "github.com/roach88/retreat/internal/engine"

// Trace event types.
const (
	EventAction = "action"
	EventResult = "result"
	EventSignal = "signal"
)

// TraceEvent is one entry of a scenario trace: a step being invoked, the
// outcome of that step, or a signal the session emitted while handling it.
type TraceEvent struct {
	Type   string         `json:"type"`
	Step   int            `json:"step"`
	Action string         `json:"action,omitempty"`
	Args   map[string]any `json:"args,omitempty"`
	Case   string         `json:"case,omitempty"`
	Notice string         `json:"notice,omitempty"`
	Signal *engine.Signal `json:"signal,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace holds every step, outcome and signal in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the durable snapshot read after the last step.
	State map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError adds a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddActionTrace records a step invocation.
func (r *Result) AddActionTrace(step int, action string, args map[string]any) {
	r.Trace = append(r.Trace, TraceEvent{Type: EventAction, Step: step, Action: action, Args: args})
}

// AddResultTrace records a step outcome.
func (r *Result) AddResultTrace(step int, action, outcome, notice string) {
	r.Trace = append(r.Trace, TraceEvent{Type: EventResult, Step: step, Action: action, Case: outcome, Notice: notice})
}

// AddSignalTrace records a signal emitted during a step.
func (r *Result) AddSignalTrace(step int, sig engine.Signal) {
	r.Trace = append(r.Trace, TraceEvent{Type: EventSignal, Step: step, Signal: &sig})
}

// Signals returns the recorded signals in order.
func (r *Result) Signals() []engine.Signal {
	var out []engine.Signal
	for _, ev := range r.Trace {
		if ev.Type == EventSignal && ev.Signal != nil {
			out = append(out, *ev.Signal)
		}
	}
	return out
}
