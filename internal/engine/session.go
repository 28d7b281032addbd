package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/roach88/retreat/internal/catalog"
	"github.com/roach88/retreat/internal/schedule"
	"github.com/roach88/retreat/internal/share"
	"github.com/roach88/retreat/internal/stamp"
	"github.com/roach88/retreat/internal/store"
)

// Options wires a Session to its collaborators. Only Store is required.
type Options struct {
	Store    *store.Store
	Catalog  *catalog.Catalog
	Calendar *schedule.Calendar
	Clock    Clock
	Sink     Sink
	Sequence *Sequence
}

// Session is the state of one companion profile: the current day, the
// checklist, the stamp book and the forms. It has no globals; tests build as
// many independent sessions as they like.
//
// A Session is not safe for concurrent use. Mutations go through the
// Engine's single-writer loop or happen on one goroutine.
type Session struct {
	store *store.Store
	cat   *catalog.Catalog
	cal   *schedule.Calendar
	clock Clock
	sink  Sink
	seq   *Sequence

	userName  string
	current   string
	statuses  map[string]schedule.Status
	formsOpen bool

	completed   map[int]bool
	book        *stamp.Book
	celebration *Celebration

	draft     string
	submitted string
	editing   bool
}

// Load builds a session from durable storage. The current day is chosen
// once here with schedule.SelectDefault and never moved by Tick.
func Load(ctx context.Context, opts Options) (*Session, error) {
	if opts.Store == nil {
		return nil, errors.New("load session: store is required")
	}

	s := &Session{
		store: opts.Store,
		cat:   opts.Catalog,
		cal:   opts.Calendar,
		clock: opts.Clock,
		sink:  opts.Sink,
		seq:   opts.Sequence,
	}
	if s.cat == nil {
		s.cat = &catalog.Catalog{}
	}
	if s.cal == nil {
		s.cal = schedule.DefaultCalendar()
	}
	if s.clock == nil {
		s.clock = SystemClock{Location: s.cal.Location}
	}
	if s.sink == nil {
		s.sink = discard{}
	}
	if s.seq == nil {
		s.seq = NewSequence()
	}
	s.store.SetClock(s.clock.Now)

	var err error
	if s.userName, err = s.store.UserName(ctx); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	ids, err := s.store.CompletedMissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	s.completed = make(map[int]bool, len(ids))
	for _, id := range ids {
		s.completed[id] = true
	}

	entries, err := s.store.StampEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	s.book = stamp.NewBook(entries)

	if s.draft, s.submitted, err = s.store.Testimony(ctx); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	now := s.clock.Now()
	s.current = schedule.SelectDefault(s.cal.Table, now)
	s.statuses = s.cal.Table.Statuses(now)
	s.formsOpen = s.cal.Forms.Activated(now)
	s.celebration = NewCelebration(len(s.cat.Activities), s.completedStamps())

	slog.Debug("session loaded",
		"user", s.userName,
		"day", s.current,
		"completed_missions", len(s.completed),
		"stamp_entries", len(entries),
	)
	return s, nil
}

func (s *Session) emit(sig Signal) {
	sig.Seq = s.seq.Next()
	s.sink.Emit(sig)
}

// reject emits the signal matching a gate or validation error and returns
// err unchanged. Other errors pass through silently.
func (s *Session) reject(err error, activity string) error {
	var sig Signal
	var ge *GateError
	var ve *ValidationError
	var se *stamp.ValidationError

	switch {
	case errors.As(err, &ge):
		sig = Signal{Kind: SignalLocked, Window: ge.WindowID, Notice: ge.Notice}
		if ge.Code == GateExpired {
			sig.Kind = SignalExpired
		} else if !ge.UnlockAt.IsZero() {
			sig.UnlockAt = ge.UnlockAt.Format(time.RFC3339)
		}
	case errors.As(err, &ve):
		sig = Signal{Kind: SignalValidationFailed, Reason: ve.Reason, Notice: ve.Notice}
	case errors.As(err, &se):
		sig = Signal{Kind: SignalValidationFailed, Reason: se.Reason, Notice: se.Message}
	case errors.Is(err, stamp.ErrCompleted):
		sig = Signal{Kind: SignalValidationFailed, Reason: "completed", Notice: NoticeFor(err)}
	default:
		return err
	}

	sig.Activity = activity
	s.emit(sig)
	slog.Debug("action rejected", "kind", sig.Kind, "window", sig.Window, "reason", sig.Reason, "activity", activity)
	return err
}

func gate(w schedule.Window, now time.Time) error {
	switch w.Status(now) {
	case schedule.Locked:
		return NewLockedError(w)
	case schedule.Expired:
		return NewExpiredError(w)
	default:
		return nil
	}
}

// Now reads the session clock.
func (s *Session) Now() time.Time {
	return s.clock.Now()
}

// Calendar returns the schedule configuration.
func (s *Session) Calendar() *schedule.Calendar {
	return s.cal
}

// Catalog returns the static data.
func (s *Session) Catalog() *catalog.Catalog {
	return s.cat
}

// UserName returns the onboarded name.
func (s *Session) UserName() string {
	return s.userName
}

// NeedsOnboarding reports whether no name has been stored yet.
func (s *Session) NeedsOnboarding() bool {
	return s.userName == ""
}

// Onboard stores the user's name.
func (s *Session) Onboard(ctx context.Context, name string) error {
	n := stamp.NormalizeName(name)
	if n == "" {
		return s.reject(&ValidationError{Reason: ReasonUserName, Notice: "이름을 입력해주세요"}, "")
	}
	if err := s.store.SetUserName(ctx, n); err != nil {
		return fmt.Errorf("onboard: %w", err)
	}
	s.userName = n
	s.emit(Signal{Kind: SignalOnboarded})
	return nil
}

// CurrentDay returns the ID of the window whose missions are shown.
func (s *Session) CurrentDay() string {
	return s.current
}

// DayView is one day tab as rendered.
type DayView struct {
	Window  schedule.Window
	Status  schedule.Status
	Current bool
}

// Days resolves every window against the clock now, so a render between
// ticks never shows a stale status.
func (s *Session) Days() []DayView {
	now := s.clock.Now()
	windows := s.cal.Table.Windows()
	out := make([]DayView, 0, len(windows))
	for _, w := range windows {
		out = append(out, DayView{Window: w, Status: w.Status(now), Current: w.ID == s.current})
	}
	return out
}

// SwitchDay makes id the current day. Locked and expired days are refused
// with a *GateError and nothing changes.
func (s *Session) SwitchDay(id string) error {
	w, ok := s.cal.Table.Lookup(id)
	if !ok {
		return s.reject(&ValidationError{Reason: ReasonUnknownDay, Notice: fmt.Sprintf("%s 일정이 없습니다", id)}, "")
	}
	if err := gate(w, s.clock.Now()); err != nil {
		return s.reject(err, "")
	}
	if id == s.current {
		return nil
	}

	from := s.current
	s.current = id
	s.emit(Signal{Kind: SignalDaySwitched, Window: id, From: from, To: id})
	slog.Debug("day switched", "from", from, "to", id)
	return nil
}

// Restore applies a remembered or deep-linked day. It is checked like
// SwitchDay; when refused the session falls back to the default day.
func (s *Session) Restore(id string) error {
	if id == "" {
		return nil
	}
	if err := s.SwitchDay(id); err != nil {
		s.current = schedule.SelectDefault(s.cal.Table, s.clock.Now())
		return err
	}
	return nil
}

// Tick re-resolves every window and the forms activation. Each status
// transition emits window_changed; the current day turning expired also
// emits expired. The current day itself is not moved.
func (s *Session) Tick() {
	now := s.clock.Now()
	for _, w := range s.cal.Table.Windows() {
		next := w.Status(now)
		prev := s.statuses[w.ID]
		if prev == next {
			continue
		}
		s.statuses[w.ID] = next
		s.emit(Signal{Kind: SignalWindowChanged, Window: w.ID, From: prev.String(), To: next.String()})
		slog.Info("window status changed", "window", w.ID, "from", prev, "to", next)

		if w.ID == s.current && next == schedule.Expired {
			s.emit(Signal{Kind: SignalExpired, Window: w.ID, Notice: schedule.ExpiredNotice(w)})
		}
	}

	open := s.cal.Forms.Activated(now)
	if open && !s.formsOpen {
		s.emit(Signal{Kind: SignalFormsOpened, Window: FormsWindowID})
		slog.Info("forms opened")
	}
	s.formsOpen = open
}

// MissionView is a checklist mission with its completion flag.
type MissionView struct {
	catalog.Mission
	Done bool
}

// Missions lists the current day's missions in catalog order.
func (s *Session) Missions() []MissionView {
	ms := s.cat.MissionsForDay(s.current)
	out := make([]MissionView, 0, len(ms))
	for _, m := range ms {
		out = append(out, MissionView{Mission: m, Done: s.completed[m.ID]})
	}
	return out
}

// Progress is a completed/total pair.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Progress counts completed checklist missions across all days. Stored IDs
// that are no longer in the catalog are not counted.
func (s *Session) Progress() Progress {
	p := Progress{Total: len(s.cat.Missions)}
	for _, m := range s.cat.Missions {
		if s.completed[m.ID] {
			p.Completed++
		}
	}
	return p
}

// ToggleMission flips a mission of the current day between done and not
// done, persists the set, then reports the new state. The day window must
// be active; outside it the set is left untouched.
func (s *Session) ToggleMission(ctx context.Context, id int) (bool, error) {
	m, ok := s.cat.Mission(id)
	if !ok {
		return false, s.reject(&ValidationError{Reason: ReasonUnknownMission, Notice: "존재하지 않는 미션입니다"}, "")
	}
	if m.DayID() != s.current {
		return s.completed[id], s.reject(&ValidationError{Reason: ReasonMissionDay, Notice: fmt.Sprintf("DAY %s의 미션이 아닙니다", s.current)}, "")
	}
	if w, ok := s.cal.Table.Lookup(s.current); ok {
		if err := gate(w, s.clock.Now()); err != nil {
			return s.completed[id], s.reject(err, "")
		}
	}

	next := make(map[int]bool, len(s.completed)+1)
	for k := range s.completed {
		next[k] = true
	}
	if next[id] {
		delete(next, id)
	} else {
		next[id] = true
	}

	ids := make([]int, 0, len(next))
	for k := range next {
		ids = append(ids, k)
	}
	sort.Ints(ids)
	if err := s.store.SaveCompletedMissions(ctx, ids); err != nil {
		return s.completed[id], fmt.Errorf("toggle mission %d: %w", id, err)
	}
	s.completed = next

	done := next[id]
	sig := Signal{Kind: SignalMissionToggled, Window: m.DayID(), Mission: id, To: "undone", Notice: "미션 완료를 취소했습니다"}
	if done {
		sig.To, sig.Notice = "done", "미션 완료! ✅"
	}
	s.emit(sig)
	return done, nil
}

// StampView is one stamp activity as rendered. Notice is set when the
// activity's window is not active.
type StampView struct {
	Activity catalog.Activity
	Entry    stamp.Entry
	State    stamp.State
	Window   string
	Status   schedule.Status
	Notice   string
}

// Stamps lists every activity with its entry and gate status.
func (s *Session) Stamps() []StampView {
	now := s.clock.Now()
	out := make([]StampView, 0, len(s.cat.Activities))
	for _, a := range s.cat.Activities {
		e, _ := s.book.Get(a.ID)
		v := StampView{Activity: a, Entry: e, State: s.book.State(a.ID), Status: schedule.Active}
		if w, ok := s.stampWindow(a); ok {
			v.Window = w.ID
			v.Status = w.Status(now)
			switch v.Status {
			case schedule.Locked:
				v.Notice = schedule.LockedNotice(w)
			case schedule.Expired:
				v.Notice = schedule.ExpiredNotice(w)
			}
		}
		out = append(out, v)
	}
	return out
}

// StampProgress counts completed stamp entries of known activities.
func (s *Session) StampProgress() Progress {
	return Progress{Completed: s.completedStamps(), Total: len(s.cat.Activities)}
}

func (s *Session) completedStamps() int {
	n := 0
	for _, a := range s.cat.Activities {
		if s.book.State(a.ID) == stamp.Completed {
			n++
		}
	}
	return n
}

// stampWindow is the activity's own day window when it names one, else the
// calendar's stamp window.
func (s *Session) stampWindow(a catalog.Activity) (schedule.Window, bool) {
	if a.Window != "" {
		return s.cal.Table.Lookup(a.Window)
	}
	return s.cal.StampWindow()
}

func (s *Session) stampActivity(id string) (catalog.Activity, error) {
	a, ok := s.cat.Activity(id)
	if !ok {
		return a, &ValidationError{Reason: ReasonUnknownActivity, Notice: "존재하지 않는 활동입니다"}
	}
	if w, ok := s.stampWindow(a); ok {
		if err := gate(w, s.clock.Now()); err != nil {
			return a, err
		}
	}
	return a, nil
}

// ConfigureStamp sets the target name and chosen mission of an activity.
func (s *Session) ConfigureStamp(ctx context.Context, id, targetName string, optionIndex int) (stamp.Entry, error) {
	a, err := s.stampActivity(id)
	if err != nil {
		return s.entry(id), s.reject(err, id)
	}
	return s.applyStamp(ctx, id, func(b *stamp.Book) (stamp.Entry, error) {
		return b.Configure(id, targetName, optionIndex, len(a.Missions))
	})
}

// AttachPhoto stores encoded photo data on a configured entry.
func (s *Session) AttachPhoto(ctx context.Context, id, data string) (stamp.Entry, error) {
	if _, err := s.stampActivity(id); err != nil {
		return s.entry(id), s.reject(err, id)
	}
	return s.applyStamp(ctx, id, func(b *stamp.Book) (stamp.Entry, error) {
		return b.AttachPhoto(id, data)
	})
}

// RemovePhoto clears the photo of a configured entry.
func (s *Session) RemovePhoto(ctx context.Context, id string) (stamp.Entry, error) {
	if _, err := s.stampActivity(id); err != nil {
		return s.entry(id), s.reject(err, id)
	}
	return s.applyStamp(ctx, id, func(b *stamp.Book) (stamp.Entry, error) {
		return b.RemovePhoto(id)
	})
}

// CompleteStamp marks a configured entry completed.
func (s *Session) CompleteStamp(ctx context.Context, id string) (stamp.Entry, error) {
	if _, err := s.stampActivity(id); err != nil {
		return s.entry(id), s.reject(err, id)
	}
	return s.applyStamp(ctx, id, func(b *stamp.Book) (stamp.Entry, error) {
		return b.Complete(id)
	})
}

func (s *Session) entry(id string) stamp.Entry {
	e, _ := s.book.Get(id)
	return e
}

// applyStamp runs a transition on a copy of the book, persists the
// resulting entry, and only then swaps the copy in and recomputes the
// aggregate. A failed write leaves the session untouched.
func (s *Session) applyStamp(ctx context.Context, id string, transition func(*stamp.Book) (stamp.Entry, error)) (stamp.Entry, error) {
	before := s.book.State(id)
	next := stamp.NewBook(s.book.Entries())

	e, err := transition(next)
	if err != nil {
		return s.entry(id), s.reject(err, id)
	}
	if err := s.store.SaveStampEntry(ctx, id, e); err != nil {
		return s.entry(id), fmt.Errorf("stamp %s: %w", id, err)
	}
	s.book = next

	s.emit(Signal{Kind: SignalTransition, Activity: id, From: before.String(), To: e.State().String()})
	if s.celebration.Observe(s.completedStamps()) {
		s.emit(Signal{Kind: SignalAllCompleted, Notice: "모든 미션을 완료했어요! 🎉"})
		slog.Info("all stamp activities completed", "total", s.celebration.Total())
	}
	return e, nil
}

// FormsView describes the testimony/survey gate.
type FormsView struct {
	Open      bool
	Label     string
	DaysUntil int
	Notice    string
}

// Forms resolves the forms activation against the clock.
func (s *Session) Forms() FormsView {
	now := s.clock.Now()
	a := s.cal.Forms
	v := FormsView{Open: a.Activated(now)}
	if !v.Open {
		v.Label = a.Label()
		v.DaysUntil = a.DaysUntil(now)
		v.Notice = a.Notice()
	}
	return v
}

func (s *Session) formsGate() error {
	a := s.cal.Forms
	if a.Activated(s.clock.Now()) {
		return nil
	}
	return &GateError{Code: GateLocked, WindowID: FormsWindowID, UnlockAt: a.At(), Notice: a.Notice()}
}

// TestimonyMode is where the testimony form stands.
type TestimonyMode int

const (
	// TestimonyWriting: nothing submitted yet; text is the draft.
	TestimonyWriting TestimonyMode = iota
	// TestimonySubmitted: read-only view of the submitted text.
	TestimonySubmitted
	// TestimonyEditing: a submitted testimony re-opened for changes.
	TestimonyEditing
)

func (m TestimonyMode) String() string {
	switch m {
	case TestimonySubmitted:
		return "submitted"
	case TestimonyEditing:
		return "editing"
	default:
		return "writing"
	}
}

// Testimony returns the form mode and the text to show in it.
func (s *Session) Testimony() (TestimonyMode, string) {
	switch {
	case s.submitted != "" && s.editing:
		return TestimonyEditing, s.submitted
	case s.submitted != "":
		return TestimonySubmitted, s.submitted
	default:
		return TestimonyWriting, s.draft
	}
}

// SaveDraft stores unfinished testimony text.
func (s *Session) SaveDraft(ctx context.Context, text string) (string, error) {
	if err := s.formsGate(); err != nil {
		return "", s.reject(err, "")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", s.reject(&ValidationError{Reason: ReasonText, Notice: "내용을 입력해주세요"}, "")
	}
	if err := s.store.Set(ctx, store.KeyTestimonyDraft, text); err != nil {
		return "", fmt.Errorf("save draft: %w", err)
	}
	s.draft = text

	const notice = "임시저장 완료!"
	s.emit(Signal{Kind: SignalTestimonySaved, Notice: notice})
	return notice, nil
}

// SubmitTestimony stores the final text and drops the draft. Submitting
// again replaces the earlier testimony.
func (s *Session) SubmitTestimony(ctx context.Context, text string) (string, error) {
	if err := s.formsGate(); err != nil {
		return "", s.reject(err, "")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", s.reject(&ValidationError{Reason: ReasonText, Notice: "간증문을 작성해주세요"}, "")
	}

	first := s.submitted == ""
	if err := s.store.SubmitTestimony(ctx, text); err != nil {
		return "", fmt.Errorf("submit testimony: %w", err)
	}
	s.submitted = text
	s.draft = ""
	s.editing = false

	notice := "간증문이 수정되었습니다! 🙏"
	if first {
		notice = "간증문이 제출되었습니다! 🙏"
	}
	s.emit(Signal{Kind: SignalTestimonySubmitted, Notice: notice})
	return notice, nil
}

// EditTestimony re-opens a submitted testimony.
func (s *Session) EditTestimony() (string, error) {
	if err := s.formsGate(); err != nil {
		return "", s.reject(err, "")
	}
	if s.submitted == "" {
		return "", s.reject(&ValidationError{Reason: ReasonNotSubmitted, Notice: "제출된 간증문이 없습니다"}, "")
	}
	s.editing = true
	return "수정 모드로 전환되었습니다 ✏️", nil
}

// SurveyInput is one filled-in survey form.
type SurveyInput struct {
	Best         string
	Improve      string
	Satisfaction int // 1-5; 0 means not chosen
}

// SubmitSurvey stores a survey response. Satisfaction is required.
func (s *Session) SubmitSurvey(ctx context.Context, in SurveyInput) (string, error) {
	if err := s.formsGate(); err != nil {
		return "", s.reject(err, "")
	}
	if in.Satisfaction < 1 || in.Satisfaction > 5 {
		return "", s.reject(&ValidationError{Reason: ReasonSatisfaction, Notice: "만족도를 선택해주세요"}, "")
	}

	_, err := s.store.SaveSurvey(ctx, store.SurveyResponse{
		Best:         strings.TrimSpace(in.Best),
		Improve:      strings.TrimSpace(in.Improve),
		Satisfaction: in.Satisfaction,
		SubmittedAt:  s.clock.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("submit survey: %w", err)
	}

	const notice = "설문이 제출되었습니다! 감사합니다 🙏"
	s.emit(Signal{Kind: SignalSurveySubmitted, Notice: notice})
	return notice, nil
}

// TimetableView is one timetable tab resolved against now.
type TimetableView struct {
	Day     schedule.Day
	Today   bool
	Slots   []catalog.Slot
	States  []catalog.SlotState
	Current int
}

// Timetable resolves a tab. An empty key selects today's tab, or the first
// tab when the retreat is not running today.
func (s *Session) Timetable(key string) (TimetableView, bool) {
	days := s.cal.TimetableDays
	if len(days) == 0 {
		return TimetableView{}, false
	}

	now := s.clock.Now()
	today := schedule.TodayKey(days, now)
	if key == "" {
		key = today
		if key == "" {
			key = days[0].Key
		}
	}

	var day schedule.Day
	found := false
	for _, d := range days {
		if d.Key == key {
			day, found = d, true
			break
		}
	}
	if !found {
		return TimetableView{}, false
	}

	slots := s.cat.Timetable[key].Schedules
	local := now.In(day.Date.Location())
	current := catalog.CurrentIndex(slots, key, today, local)
	return TimetableView{
		Day:     day,
		Today:   key == today,
		Slots:   slots,
		States:  catalog.States(slots, current),
		Current: current,
	}, true
}

// FindGroup looks up the caller's small group.
func (s *Session) FindGroup(name, last4 string) (catalog.Match, bool, error) {
	return s.cat.Groups.Find(name, last4)
}

// CanShare reports whether enough progress exists to offer sharing.
func (s *Session) CanShare() bool {
	return share.Shareable(s.Progress().Completed + s.completedStamps())
}

// ShareReport collects what the share text is built from.
func (s *Session) ShareReport() share.Report {
	p := s.Progress()
	r := share.Report{
		UserName:  s.userName,
		Completed: p.Completed,
		Total:     p.Total,
		Testimony: s.submitted,
	}
	for _, m := range s.cat.Missions {
		if s.completed[m.ID] {
			r.Missions = append(r.Missions, m.Title)
		}
	}
	for _, a := range s.cat.Activities {
		e, ok := s.book.Get(a.ID)
		if !ok || !e.Completed {
			continue
		}
		line := share.StampLine{Emoji: a.Emoji, Activity: a.Name, Target: e.TargetName}
		if e.SelectedOptionIndex >= 0 && e.SelectedOptionIndex < len(a.Missions) {
			line.Mission = a.Missions[e.SelectedOptionIndex]
		}
		r.Stamps = append(r.Stamps, line)
	}
	return r
}

// Share composes the report and runs the share policy. Below the sharing
// threshold nothing is shared.
func (s *Session) Share(ctx context.Context, native share.Sharer, fallbacks []share.Fallback) (share.Outcome, error) {
	if !s.CanShare() {
		err := &ValidationError{Reason: ReasonProgress, Notice: fmt.Sprintf("미션을 %d개 이상 완료하면 공유할 수 있어요", share.MinMissionsToShare)}
		return share.Outcome{}, s.reject(err, "")
	}
	payload := share.Payload{Title: share.Title, Text: share.Compose(s.ShareReport())}
	return share.Share(ctx, native, fallbacks, payload)
}
