// Package tui is the interactive rendering layer: day tabs, the checklist of
// the current day, stamp progress and notices. All state lives in the
// engine's session; the model only keeps the last snapshot it was sent.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/retreat/internal/engine"
)

// ToastDuration is how long a notice stays on screen.
const ToastDuration = 3 * time.Second

// ─── ports ───────────────────────────────────────────────────────────────────

// Runner executes a function against the session on its owning goroutine.
// *engine.Engine implements it.
type Runner interface {
	Do(ctx context.Context, name string, fn func(ctx context.Context, s *engine.Session) error) error
}

// SplashStore remembers whether the welcome screen was shown.
// *store.Store implements it.
type SplashStore interface {
	SplashShown(ctx context.Context) (bool, error)
	MarkSplashShown(ctx context.Context) error
}

// SignalSource hands over the signals emitted since the last call.
// *engine.Recorder implements it.
type SignalSource interface {
	Drain() []engine.Signal
}

// ─── messages ────────────────────────────────────────────────────────────────

type actionMsg struct {
	snap    *snapshot
	signals []engine.Signal
	err     error
}

type splashMsg struct{ show bool }

type tickMsg time.Time

type toastExpiredMsg struct{ id int }

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Day       key.Binding
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Timetable key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Day:       key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-3", "day")),
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Timetable: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "timetable")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Day, k.Down, k.Up, k.Toggle, k.Timetable, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Options wires a Model to the engine.
type Options struct {
	Runner  Runner
	Signals SignalSource
	Splash  SplashStore // optional
	Tick    time.Duration
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx  context.Context
	opts Options

	snap          snapshot
	loaded        bool
	cursor        int
	showTimetable bool
	showSplash    bool
	name          textinput.Model

	toast   string
	toastID int

	keys   keyMap
	help   help.Model
	width  int
	height int
}

// New builds a model. ctx bounds every engine call the model makes.
func New(ctx context.Context, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "이름"
	ti.CharLimit = 20
	ti.Focus()

	return Model{
		ctx:  ctx,
		opts: opts,
		name: ti,
		keys: defaultKeys(),
		help: help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.checkSplash(), m.scheduleTick())
}

// ─── commands ────────────────────────────────────────────────────────────────

// run executes fn on the engine, then snapshots the session in the same
// action so the view never sees a half-applied change.
func (m Model) run(name string, fn func(ctx context.Context, s *engine.Session) error) tea.Cmd {
	runner, signals, ctx := m.opts.Runner, m.opts.Signals, m.ctx
	return func() tea.Msg {
		var snap *snapshot
		err := runner.Do(ctx, name, func(ctx context.Context, s *engine.Session) error {
			var err error
			if fn != nil {
				err = fn(ctx, s)
			}
			taken := takeSnapshot(s)
			snap = &taken
			return err
		})
		msg := actionMsg{snap: snap, err: err}
		if signals != nil {
			msg.signals = signals.Drain()
		}
		return msg
	}
}

func (m Model) load() tea.Cmd {
	return m.run("view", nil)
}

func (m Model) checkSplash() tea.Cmd {
	st, ctx := m.opts.Splash, m.ctx
	if st == nil {
		return nil
	}
	return func() tea.Msg {
		shown, err := st.SplashShown(ctx)
		if err != nil {
			slog.Warn("splash state unavailable", "error", err)
			return splashMsg{}
		}
		return splashMsg{show: !shown}
	}
}

func (m Model) dismissSplash() tea.Cmd {
	st, ctx := m.opts.Splash, m.ctx
	if st == nil {
		return nil
	}
	return func() tea.Msg {
		if err := st.MarkSplashShown(ctx); err != nil {
			slog.Warn("failed to store splash state", "error", err)
		}
		return nil
	}
}

func (m Model) scheduleTick() tea.Cmd {
	if m.opts.Tick <= 0 {
		return nil
	}
	return tea.Tick(m.opts.Tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func expireToast(id int) tea.Cmd {
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case splashMsg:
		m.showSplash = msg.show
		return m, nil

	case actionMsg:
		return m.applyAction(msg)

	case tickMsg:
		return m, tea.Batch(m.run("tick", func(_ context.Context, s *engine.Session) error {
			s.Tick()
			return nil
		}), m.scheduleTick())

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) applyAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.snap != nil {
		m.snap = *msg.snap
		m.loaded = true
		if m.cursor >= len(m.snap.missions) {
			m.cursor = max(len(m.snap.missions)-1, 0)
		}
	}

	notice := ""
	for _, s := range msg.signals {
		if s.Notice != "" {
			notice = s.Notice
		}
	}
	if msg.err != nil {
		if n := engine.NoticeFor(msg.err); n != "" {
			notice = n
		} else if !errors.Is(msg.err, context.Canceled) {
			slog.Error("action failed", "error", msg.err)
			notice = "오류가 발생했습니다: " + msg.err.Error()
		}
	}
	if notice == "" {
		return m, nil
	}
	m.toastID++
	m.toast = notice
	return m, expireToast(m.toastID)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showSplash {
		m.showSplash = false
		return m, m.dismissSplash()
	}

	if m.loaded && m.snap.userName == "" {
		return m.handleNameInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Day):
		i := int(msg.String()[0] - '1')
		if i < 0 || i >= len(m.snap.days) {
			return m, nil
		}
		id := m.snap.days[i].Window.ID
		m.cursor = 0
		return m, m.run("switch_day", func(_ context.Context, s *engine.Session) error {
			return s.SwitchDay(id)
		})

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.missions)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		if m.showTimetable || m.cursor >= len(m.snap.missions) {
			return m, nil
		}
		id := m.snap.missions[m.cursor].ID
		return m, m.run("toggle_mission", func(ctx context.Context, s *engine.Session) error {
			_, err := s.ToggleMission(ctx, id)
			return err
		})

	case key.Matches(msg, m.keys.Timetable):
		m.showTimetable = !m.showTimetable
		return m, nil
	}
	return m, nil
}

func (m Model) handleNameInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		name := m.name.Value()
		return m, m.run("onboard", func(ctx context.Context, s *engine.Session) error {
			return s.Onboard(ctx, name)
		})
	}
	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}
