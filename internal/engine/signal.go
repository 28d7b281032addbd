package engine

import "sync"

// SignalKind names a change the rendering layer should react to.
type SignalKind string

const (
	SignalOnboarded          SignalKind = "onboarded"
	SignalDaySwitched        SignalKind = "day_switched"
	SignalWindowChanged      SignalKind = "window_changed"
	SignalExpired            SignalKind = "expired"
	SignalLocked             SignalKind = "locked"
	SignalValidationFailed   SignalKind = "validation_failed"
	SignalMissionToggled     SignalKind = "mission_toggled"
	SignalTransition         SignalKind = "transition"
	SignalAllCompleted       SignalKind = "all_completed"
	SignalFormsOpened        SignalKind = "forms_opened"
	SignalTestimonySaved     SignalKind = "testimony_saved"
	SignalTestimonySubmitted SignalKind = "testimony_submitted"
	SignalSurveySubmitted    SignalKind = "survey_submitted"
)

// Signal is one observable session event. Seq orders signals; the other
// fields are set only when meaningful for Kind.
type Signal struct {
	Seq      int64      `json:"seq" yaml:"seq"`
	Kind     SignalKind `json:"kind" yaml:"kind"`
	Window   string     `json:"window,omitempty" yaml:"window,omitempty"`
	Activity string     `json:"activity,omitempty" yaml:"activity,omitempty"`
	Mission  int        `json:"mission,omitempty" yaml:"mission,omitempty"`
	From     string     `json:"from,omitempty" yaml:"from,omitempty"`
	To       string     `json:"to,omitempty" yaml:"to,omitempty"`
	Reason   string     `json:"reason,omitempty" yaml:"reason,omitempty"`
	UnlockAt string     `json:"unlock_at,omitempty" yaml:"unlock_at,omitempty"`
	Notice   string     `json:"notice,omitempty" yaml:"notice,omitempty"`
}

// Sink receives signals. Emit is called from the goroutine that mutates the
// session and must not block.
type Sink interface {
	Emit(Signal)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Signal)

// Emit calls f(s).
func (f SinkFunc) Emit(s Signal) { f(s) }

type discard struct{}

func (discard) Emit(Signal) {}

// Recorder is a Sink that keeps every signal in order.
//
// Thread-safety: safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	signals []Signal
}

// Emit appends s.
func (r *Recorder) Emit(s Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
}

// Signals returns a copy of everything recorded so far.
func (r *Recorder) Signals() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Signal, len(r.signals))
	copy(out, r.signals)
	return out
}

// Drain returns the recorded signals and forgets them.
func (r *Recorder) Drain() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.signals
	r.signals = nil
	return out
}
