// Package schedule models the time windows that gate the retreat companion.
//
// A Window is a half-open interval [Start, End). Its Status relative to an
// instant is always exactly one of Locked, Active or Expired, and never
// regresses as time moves forward:
//
//	now <  Start         -> Locked
//	Start <= now < End   -> Active
//	now >= End           -> Expired
//
// A Table holds windows in declaration order. That order is the ordering the
// default selector relies on ("first active", "latest expired", "first").
//
// Schedules can be declared in CUE and are validated against an embedded
// schema before they are decoded (see LoadCUE).
package schedule
