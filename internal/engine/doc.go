// Package engine owns the companion's session state and the loop that
// mutates it.
//
// ARCHITECTURE:
//
// Session:
// An explicit, constructed object holding the current day, the checklist,
// the stamp book and the testimony/survey forms. Every operation reads
// time from an injected Clock, checks the relevant schedule window, writes
// durable storage synchronously and only then updates memory and emits a
// Signal. A rejected operation changes nothing and emits a locked, expired
// or validation_failed signal carrying the user-facing notice.
//
// Single-Writer Loop:
// Engine.Run processes Actions one at a time in FIFO order. User input and
// timer ticks are both Actions, so two mutations never interleave. The tick
// is an ordinary action (TickAction); StartTicker schedules it and replaces
// any earlier ticker. Tests skip the loop and call Session.Tick directly.
//
// Signals are stamped with a logical Sequence, never wall-clock time, so a
// trace recorded under a manual clock is reproducible byte for byte.
package engine
