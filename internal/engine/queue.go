package engine

import (
	"context"
	"sync"
)

// Action is one unit of work run against the session by the Engine loop.
type Action struct {
	// Name labels the action in logs ("tick", "toggle_mission").
	Name string

	// Flow correlates log lines of one user request.
	Flow string

	// Do runs on the loop goroutine with exclusive access to the session.
	Do func(ctx context.Context, s *Session) error

	// done, when set, receives Do's result.
	done chan error
}

// actionQueue is a thread-safe FIFO queue for actions.
//
// The queue is unbounded so the ticker and the UI never block on enqueue.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop (prevents goroutine hangs on context cancellation).
type actionQueue struct {
	mu      sync.Mutex
	actions []Action
	closed  bool
	signal  chan struct{} // Signals action availability (buffered, size 1)
}

func newActionQueue() *actionQueue {
	return &actionQueue{
		actions: make([]Action, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds an action to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *actionQueue) Enqueue(a Action) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.actions = append(q.actions, a)

	// Non-blocking: buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Action{}, false) if queue is empty.
func (q *actionQueue) TryDequeue() (Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.actions) == 0 {
		return Action{}, false
	}

	a := q.actions[0]

	// Release the closure for GC
	q.actions[0] = Action{}

	if len(q.actions) == 1 {
		q.actions = q.actions[:0]
	} else {
		q.actions = q.actions[1:]
	}

	return a, true
}

// Wait returns a channel that signals when actions may be available.
func (q *actionQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *actionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Closed reports whether Close has been called.
func (q *actionQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more actions will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *actionQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
