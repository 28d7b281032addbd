package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/retreat/internal/catalog"
	"github.com/roach88/retreat/internal/engine"
	"github.com/roach88/retreat/internal/schedule"
	"github.com/roach88/retreat/internal/share"
	"github.com/roach88/retreat/internal/stamp"
	"github.com/roach88/retreat/internal/store"
	"github.com/roach88/retreat/internal/testutil"
)

// DefaultFlowToken is used when a scenario names none.
const DefaultFlowToken = "test-flow-default"

// Harness runs one scenario. Every action goes through a real Engine and
// Session backed by a throwaway SQLite file; only the clock is controlled.
type Harness struct {
	store    *store.Store
	catalog  *catalog.Catalog
	calendar *schedule.Calendar
	clock    *testutil.ManualClock
	flowGen  engine.StaticGenerator
	seq      *engine.Sequence
	recorder *engine.Recorder
	logger   *slog.Logger

	session *engine.Session
	engine  *engine.Engine
	cancel  context.CancelFunc
	done    chan error

	// Sharing writes here instead of the terminal.
	shareOut io.Writer
}

// Run executes a scenario and returns its result. The returned error is
// reserved for harness failures (bad data path, database errors); scenario
// mismatches are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "retreat-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "retreat.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	cal := testutil.Calendar()
	if scenario.Schedule != "" {
		if cal, err = schedule.LoadCUE(scenario.Schedule); err != nil {
			return nil, fmt.Errorf("failed to load schedule: %w", err)
		}
	}
	cat := testutil.Catalog()
	if scenario.Data != "" {
		cat = catalog.Load(scenario.Data)
	}

	now, err := schedule.ParseInstant(scenario.Now, cal.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid now: %w", err)
	}

	token := scenario.FlowToken
	if token == "" {
		token = DefaultFlowToken
	}

	h := &Harness{
		store:    st,
		catalog:  cat,
		calendar: cal,
		clock:    testutil.NewManualClock(now),
		flowGen:  engine.StaticGenerator(token),
		seq:      engine.NewSequence(),
		recorder: &engine.Recorder{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		shareOut: io.Discard,
	}

	ctx := context.Background()
	for key, value := range scenario.Seed {
		if err := st.Set(ctx, key, value); err != nil {
			return nil, fmt.Errorf("failed to seed %q: %w", key, err)
		}
	}

	if err := h.start(ctx); err != nil {
		return nil, err
	}
	defer h.stop()

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	state, err := h.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read final state: %w", err)
	}
	result.State = state

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// start loads a session from the store and runs an engine over it.
func (h *Harness) start(ctx context.Context) error {
	s, err := engine.Load(ctx, engine.Options{
		Store:    h.store,
		Catalog:  h.catalog,
		Calendar: h.calendar,
		Clock:    h.clock,
		Sink:     h.recorder,
		Sequence: h.seq,
	})
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	h.session = s
	h.engine = engine.New(s, h.flowGen)
	h.cancel = cancel
	h.done = make(chan error, 1)
	go func() { h.done <- h.engine.Run(runCtx) }()
	return nil
}

// stop drains the engine and waits for its loop to return.
func (h *Harness) stop() {
	if h.engine == nil {
		return
	}
	h.engine.Stop()
	<-h.done
	h.cancel()
	h.engine = nil
}

// reload simulates closing and reopening the app: a fresh session is built
// from whatever reached the store.
func (h *Harness) reload(ctx context.Context) error {
	h.stop()
	return h.start(ctx)
}

func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		result.AddActionTrace(i, step.Invoke, step.Args)

		notice, err := h.perform(ctx, step)
		outcome := classify(err)
		if outcome == CaseError && isHarnessError(err) {
			return fmt.Errorf("flow step %d (%s): %w", i, step.Invoke, err)
		}
		if notice == "" {
			notice = engine.NoticeFor(err)
		}

		for _, sig := range h.recorder.Drain() {
			result.AddSignalTrace(i, sig)
		}
		result.AddResultTrace(i, step.Invoke, outcome, notice)

		want := CaseOK
		if step.Expect != nil {
			want = step.Expect.Case
		}
		if outcome != want {
			msg := fmt.Sprintf("flow[%d] %s: expected case %s, got %s", i, step.Invoke, want, outcome)
			if err != nil {
				msg += fmt.Sprintf(" (%v)", err)
			}
			result.AddError(msg)
		}
		if step.Expect != nil && step.Expect.Notice != "" && step.Expect.Notice != notice {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected notice %q, got %q", i, step.Invoke, step.Expect.Notice, notice))
		}

		h.logger.Info("flow step completed", "step", i, "action", step.Invoke, "case", outcome)
	}
	return nil
}

// harnessError marks failures of the harness itself, such as a malformed
// argument, as opposed to outcomes of the action under test.
type harnessError struct{ err error }

func (e *harnessError) Error() string { return e.err.Error() }
func (e *harnessError) Unwrap() error { return e.err }

func isHarnessError(err error) bool {
	var he *harnessError
	return errors.As(err, &he)
}

func classify(err error) string {
	switch {
	case err == nil:
		return CaseOK
	case engine.IsLockedError(err):
		return CaseLocked
	case engine.IsExpiredError(err):
		return CaseExpired
	case engine.IsValidationError(err), errors.Is(err, stamp.ErrCompleted):
		return CaseValidation
	default:
		return CaseError
	}
}

// perform runs one step. Session actions go through the engine loop; clock
// and reload steps act on the harness directly.
func (h *Harness) perform(ctx context.Context, step FlowStep) (string, error) {
	a := newArgReader(step.Args)

	switch step.Invoke {
	case "set_clock":
		t, err := schedule.ParseInstant(a.str("now"), h.calendar.Location)
		if err != nil {
			return "", &harnessError{err}
		}
		h.clock.Set(t)
		return "", nil
	case "advance":
		d, err := time.ParseDuration(a.str("by"))
		if err != nil {
			return "", &harnessError{err}
		}
		h.clock.Advance(d)
		return "", nil
	case "reload":
		if err := h.reload(ctx); err != nil {
			return "", &harnessError{err}
		}
		return "", nil
	case "tick":
		tick := engine.TickAction()
		return "", h.engine.Do(ctx, tick.Name, tick.Do)
	}

	var notice string
	err := h.engine.Do(ctx, step.Invoke, func(ctx context.Context, s *engine.Session) error {
		var err error
		notice, err = h.sessionAction(ctx, s, step.Invoke, a)
		return err
	})
	if a.err != nil {
		return "", &harnessError{a.err}
	}
	return notice, err
}

func (h *Harness) sessionAction(ctx context.Context, s *engine.Session, name string, a *argReader) (string, error) {
	switch name {
	case "onboard":
		return "", s.Onboard(ctx, a.str("name"))
	case "switch_day":
		return "", s.SwitchDay(a.str("day"))
	case "restore":
		return "", s.Restore(a.str("day"))
	case "toggle_mission":
		_, err := s.ToggleMission(ctx, a.integer("id"))
		return "", err
	case "configure_stamp":
		_, err := s.ConfigureStamp(ctx, a.str("activity"), a.str("target"), a.integer("option"))
		return "", err
	case "attach_photo":
		_, err := s.AttachPhoto(ctx, a.str("activity"), a.str("data"))
		return "", err
	case "remove_photo":
		_, err := s.RemovePhoto(ctx, a.str("activity"))
		return "", err
	case "complete_stamp":
		_, err := s.CompleteStamp(ctx, a.str("activity"))
		return "", err
	case "save_draft":
		return s.SaveDraft(ctx, a.str("text"))
	case "submit_testimony":
		return s.SubmitTestimony(ctx, a.str("text"))
	case "edit_testimony":
		return s.EditTestimony()
	case "submit_survey":
		return s.SubmitSurvey(ctx, engine.SurveyInput{
			Best:         a.str("best"),
			Improve:      a.str("improve"),
			Satisfaction: a.integer("satisfaction"),
		})
	case "share":
		native := stubSharer{mode: a.str("native")}
		fallbacks := []share.Fallback{share.ClipboardFallback{W: h.shareOut}}
		out, err := s.Share(ctx, native, fallbacks)
		return out.Notice, err
	default:
		return "", &harnessError{fmt.Errorf("unknown action %q", name)}
	}
}

// stubSharer stands in for the native share surface. mode "ok" succeeds,
// "cancel" reports a user cancel; anything else fails so the fallbacks run.
type stubSharer struct{ mode string }

func (s stubSharer) Share(context.Context, share.Payload) error {
	switch s.mode {
	case "ok":
		return nil
	case "cancel":
		return share.ErrCancelled
	default:
		return errors.New("native share unavailable")
	}
}

// argReader reads typed values out of YAML-decoded step arguments. The
// first conversion problem is kept in err.
type argReader struct {
	m   map[string]any
	err error
}

func newArgReader(m map[string]any) *argReader { return &argReader{m: m} }

func (a *argReader) str(key string) string {
	v, ok := a.m[key]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func (a *argReader) integer(key string) int {
	v, ok := a.m[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		if x == float64(int(x)) {
			return int(x)
		}
	}
	if a.err == nil {
		a.err = fmt.Errorf("arg %q: want integer, got %v (%T)", key, v, v)
	}
	return 0
}

// snapshot reads the state assertions are matched against.
func (h *Harness) snapshot(ctx context.Context) (map[string]any, error) {
	var state map[string]any
	err := h.engine.Do(ctx, "snapshot", func(ctx context.Context, s *engine.Session) error {
		state = Snapshot(s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	surveys, err := h.store.Surveys(ctx)
	if err != nil {
		return nil, err
	}
	state["surveys"] = len(surveys)
	return state, nil
}

// Snapshot flattens the observable session state into plain values.
func Snapshot(s *engine.Session) map[string]any {
	missions := []int{}
	for _, v := range s.Missions() {
		if v.Done {
			missions = append(missions, v.ID)
		}
	}

	days := map[string]any{}
	for _, d := range s.Days() {
		days[d.Window.ID] = d.Status.String()
	}

	stamps := map[string]any{}
	for _, v := range s.Stamps() {
		if v.State == stamp.NotStarted {
			continue
		}
		stamps[v.Activity.ID] = map[string]any{
			"target": v.Entry.TargetName,
			"option": v.Entry.SelectedOptionIndex,
			"photo":  v.Entry.PhotoData != "",
			"state":  v.State.String(),
		}
	}

	p := s.Progress()
	sp := s.StampProgress()
	mode, text := s.Testimony()
	return map[string]any{
		"user_name":      s.UserName(),
		"current_day":    s.CurrentDay(),
		"days":           days,
		"day_missions":   missions,
		"progress":       fmt.Sprintf("%d/%d", p.Completed, p.Total),
		"stamp_progress": fmt.Sprintf("%d/%d", sp.Completed, sp.Total),
		"stamps":         stamps,
		"forms_open":     s.Forms().Open,
		"testimony_mode": mode.String(),
		"testimony_text": text,
		"can_share":      s.CanShare(),
	}
}
