package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/retreat/internal/catalog"
	"github.com/roach88/retreat/internal/config"
	"github.com/roach88/retreat/internal/engine"
	"github.com/roach88/retreat/internal/schedule"
	"github.com/roach88/retreat/internal/store"
)

// app is one opened profile: the store, the static data and a running
// engine that owns the session. Every command mutates through app.do.
type app struct {
	store   *store.Store
	catalog *catalog.Catalog
	cal     *schedule.Calendar
	clock   engine.Clock
	engine  *engine.Engine
	rec     *engine.Recorder

	cancel context.CancelFunc
	done   chan error
}

// openApp wires the configured store, data directory, schedule and clock
// into a session and starts its engine loop. Signals go to the app's
// recorder and, when extra is non-nil, to extra as well.
func openApp(ctx context.Context, cfg config.Config, extra engine.Sink) (*app, error) {
	cal, err := loadCalendar(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load schedule", err)
	}
	clock, err := clockFor(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	slog.Debug("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	a := &app{
		store:   st,
		catalog: catalog.Load(cfg.DataDir),
		cal:     cal,
		clock:   clock,
		rec:     &engine.Recorder{},
	}

	var sink engine.Sink = a.rec
	if extra != nil {
		sink = engine.SinkFunc(func(s engine.Signal) {
			a.rec.Emit(s)
			extra.Emit(s)
		})
	}

	session, err := engine.Load(ctx, engine.Options{
		Store:    st,
		Catalog:  a.catalog,
		Calendar: cal,
		Clock:    clock,
		Sink:     sink,
	})
	if err != nil {
		_ = st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load session", err)
	}

	a.engine = engine.New(session, engine.UUIDv7Generator{})
	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan error, 1)
	go func() { a.done <- a.engine.Run(runCtx) }()
	return a, nil
}

// loadCalendar returns the CUE schedule when one is configured, else the
// built-in calendar.
func loadCalendar(cfg config.Config) (*schedule.Calendar, error) {
	if cfg.SchedulePath == "" {
		return schedule.DefaultCalendar(), nil
	}
	return schedule.LoadCUE(cfg.SchedulePath)
}

// clockFor pins the clock when a debug time is configured.
func clockFor(cfg config.Config) (engine.Clock, error) {
	pinned, ok, err := cfg.PinnedTime()
	if err != nil {
		return nil, err
	}
	if ok {
		slog.Debug("clock pinned", "now", pinned)
		return engine.FixedClock{T: pinned}, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return engine.SystemClock{Location: loc}, nil
}

// do runs fn on the engine loop and waits for it.
func (a *app) do(ctx context.Context, name string, fn func(ctx context.Context, s *engine.Session) error) error {
	return a.engine.Do(ctx, name, fn)
}

// view runs a read-only fn on the engine loop.
func (a *app) view(ctx context.Context, fn func(s *engine.Session)) error {
	return a.do(ctx, "view", func(_ context.Context, s *engine.Session) error {
		fn(s)
		return nil
	})
}

// Close stops the engine, waits for the loop to drain and closes the store.
func (a *app) Close() error {
	a.engine.Stop()
	err := <-a.done
	a.cancel()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if cerr := a.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// printNotices writes the notice of every recorded signal that has one.
func printNotices(w io.Writer, signals []engine.Signal) {
	for _, s := range signals {
		if s.Notice != "" {
			fmt.Fprintln(w, s.Notice)
		}
	}
}

// actionResult is the JSON payload of a mutating command.
type actionResult struct {
	Notice  string          `json:"notice,omitempty"`
	Result  any             `json:"result,omitempty"`
	Signals []engine.Signal `json:"signals"`
}

// report renders the outcome of a mutating command: the signals it
// produced plus an optional notice, or text via text in text mode.
func (a *app) report(f *OutputFormatter, notice string, result any, text func(w io.Writer)) error {
	signals := a.rec.Drain()
	if signals == nil {
		signals = []engine.Signal{}
	}
	return f.Render(actionResult{Notice: notice, Result: result, Signals: signals}, func(w io.Writer) {
		if text != nil {
			text(w)
		}
		printed := false
		for _, s := range signals {
			if s.Notice == notice {
				printed = true
			}
		}
		printNotices(w, signals)
		if notice != "" && !printed {
			fmt.Fprintln(w, notice)
		}
	})
}

// withApp opens the app for cmd, runs fn and closes the app. Close errors
// are logged, not returned, so fn's outcome decides the exit code.
func withApp(ctx context.Context, opts *RootOptions, fn func(a *app) error) error {
	a, err := openApp(ctx, opts.Config, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			slog.Error("error closing app", "error", cerr)
		}
	}()
	return fn(a)
}
