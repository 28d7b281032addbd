package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// FlowTokenGenerator generates unique flow tokens for request correlation.
// UUIDv7Generator is used in production; StaticGenerator keeps scenario
// traces deterministic.
type FlowTokenGenerator interface {
	Generate() string
}

// ErrStopped is returned by Do when the engine no longer accepts actions.
var ErrStopped = errors.New("engine stopped")

// Engine is the single-writer loop that owns a Session.
//
// User input and timer ticks are both Actions; the loop runs them one at a
// time in FIFO order, so no two mutations of the session ever interleave.
//
// Thread-safety model:
//   - Enqueue(), Do(), StartTicker(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Engine struct {
	session *Session
	queue   *actionQueue
	flowGen FlowTokenGenerator

	tickerMu   sync.Mutex
	stopTicker func()
	tickers    atomic.Int32 // running ticker goroutines
}

// New creates an Engine around a loaded session.
func New(s *Session, flowGen FlowTokenGenerator) *Engine {
	if flowGen == nil {
		flowGen = UUIDv7Generator{}
	}
	return &Engine{
		session: s,
		queue:   newActionQueue(),
		flowGen: flowGen,
	}
}

// Enqueue submits an action without waiting for it.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(a Action) bool {
	if a.Flow == "" {
		a.Flow = e.NewFlow()
	}
	return e.queue.Enqueue(a)
}

// Do submits fn and waits for its result. The wait ends early when ctx is
// done; the action still runs.
func (e *Engine) Do(ctx context.Context, name string, fn func(ctx context.Context, s *Session) error) error {
	done := make(chan error, 1)
	if !e.Enqueue(Action{Name: name, Do: fn, done: done}) {
		return ErrStopped
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewFlow generates a new flow token.
func (e *Engine) NewFlow() string {
	return e.flowGen.Generate()
}

// Run starts the single-writer loop.
// Blocks until context is cancelled or Stop() is called.
//
// A failing action is logged with its flow and the loop continues; the
// session stays usable.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")
	defer e.StopTicker()

	for {
		a, ok := e.queue.TryDequeue()
		if ok {
			e.process(ctx, a)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			e.abandon(ctx.Err())
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue.
			if e.queue.Len() == 0 && e.queue.Closed() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// abandon answers every waiting Do caller left in a closed queue.
func (e *Engine) abandon(err error) {
	for {
		a, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		if a.done != nil {
			a.done <- err
		}
	}
}

// Stop closes the queue, which makes Run return once it is drained.
func (e *Engine) Stop() {
	e.queue.Close()
}

// process runs one action. Called only from Run.
func (e *Engine) process(ctx context.Context, a Action) {
	slog.Debug("processing action", "action", a.Name, "flow", a.Flow)

	var err error
	if a.Do == nil {
		err = errors.New("action has no body")
	} else {
		err = a.Do(ctx, e.session)
	}

	if err != nil {
		if IsGateError(err) || IsValidationError(err) {
			slog.Debug("action rejected", "action", a.Name, "flow", a.Flow, "error", err)
		} else {
			slog.Error("action failed", "action", a.Name, "flow", a.Flow, "error", err)
		}
	}
	if a.done != nil {
		a.done <- err
	}
}

// TickAction re-resolves window statuses.
func TickAction() Action {
	return Action{
		Name: "tick",
		Do: func(_ context.Context, s *Session) error {
			s.Tick()
			return nil
		},
	}
}

// StartTicker enqueues a TickAction every interval. Any ticker started
// earlier is stopped first, so repeated calls never leave two running.
// A non-positive interval only stops the current ticker.
func (e *Engine) StartTicker(interval time.Duration) {
	e.tickerMu.Lock()
	defer e.tickerMu.Unlock()

	if e.stopTicker != nil {
		e.stopTicker()
		e.stopTicker = nil
	}
	if interval <= 0 {
		return
	}

	t := time.NewTicker(interval)
	quit := make(chan struct{})
	exited := make(chan struct{})
	e.tickers.Add(1)

	go func() {
		defer close(exited)
		defer e.tickers.Add(-1)
		for {
			select {
			case <-t.C:
				if !e.Enqueue(TickAction()) {
					return
				}
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once
	e.stopTicker = func() {
		once.Do(func() {
			t.Stop()
			close(quit)
			<-exited
		})
	}
	slog.Debug("ticker started", "interval", interval)
}

// StopTicker stops the running ticker, if any.
func (e *Engine) StopTicker() {
	e.StartTicker(0)
}

// ActiveTickers reports how many ticker goroutines are running.
func (e *Engine) ActiveTickers() int {
	return int(e.tickers.Load())
}

// QueueLen returns the number of pending actions.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}
