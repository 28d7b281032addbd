// Package harness runs YAML scenarios against a real engine and session.
//
// Each scenario gets a fresh SQLite file, the fixture catalog and calendar
// (or the data directory and CUE schedule it names), a manual clock pinned at
// Now and a fixed flow token. Actions are submitted through Engine.Do, so the
// single-writer loop, the gating and the persistence under test are the
// production ones.
//
// # Scenario Format
//
//	name: stamp_survives_reload
//	description: "A completed stamp is still completed after reopening"
//	now: 2026-01-12T09:00
//	seed:
//	  userName: 지민
//	flow:
//	  - invoke: configure_stamp
//	    args: { activity: praise, target: 지민, option: 2 }
//	  - invoke: complete_stamp
//	    args: { activity: praise }
//	  - invoke: reload
//	  - invoke: switch_day
//	    args: { day: "2" }
//	    expect:
//	      case: locked
//	      notice: "DAY 2은 1월 13일 오전 7시에 열립니다 🔒"
//	assertions:
//	  - type: signal_contains
//	    kind: transition
//	    fields: { activity: praise, to: completed }
//	  - type: final_state
//	    expect:
//	      stamps: { praise: { target: 지민, option: 2, state: completed } }
//
// Clock steps (set_clock, advance) and reload act on the harness; every
// other step is a session action. A step without expect must succeed.
//
// # Assertion Types
//
//   - signal_contains: some signal of kind has all the given fields
//   - signal_order: the kinds appear in this order
//   - signal_count: exactly count signals of kind
//   - final_state: the state snapshot (see Snapshot) has the given values
//
// # Golden Traces
//
// RunWithGolden serialises the full trace (steps, outcomes, signals) as
// indented JSON and compares it with testdata/golden/<name>.golden.
package harness
