package engine

import (
	"sync/atomic"
	"time"
)

// Clock supplies the current instant. Status decisions and stored
// timestamps both read it, so tests and debug runs can pin time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location (UTC when nil).
type SystemClock struct {
	Location *time.Location
}

// Now returns the wall-clock time in the configured location.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant. Used for RETREAT_DEBUG_TIME
// and --now.
type FixedClock struct {
	T time.Time
}

// Now returns the pinned instant.
func (c FixedClock) Now() time.Time {
	return c.T
}

// Sequence is a monotonic logical counter stamped on every emitted signal.
//
// Signals are ordered by seq, never by wall clock, so a trace recorded under
// a manual clock is byte-identical across runs.
//
// Thread-safety: Sequence is safe for concurrent use (atomic operations).
// The Engine's single-writer loop means only one goroutine normally calls
// Next().
type Sequence struct {
	seq atomic.Int64
}

// NewSequence creates a sequence starting at 0.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NewSequenceAt creates a sequence starting at a specific value.
func NewSequenceAt(start int64) *Sequence {
	s := &Sequence{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number and increments the counter.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}
