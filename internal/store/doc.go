// Package store provides SQLite-backed durable storage for the retreat
// companion. It plays the role of the browser's local storage: one device,
// one profile, surviving restarts.
//
// # Layout
//
//   - kv: string keys (userName, completed_missions, testimony_draft, ...)
//   - stamp_entries: one JSON document per stamp activity
//   - survey_responses: submitted surveys (schema v1)
//
// # Write Semantics
//
// Every mutation is written synchronously before the caller recomputes any
// derived state. Writes are upserts, so two sessions sharing a file resolve
// last-write-wins without corrupting the stored documents.
//
// Stored JSON that fails to decode is logged and read back as empty; it is
// never fatal.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
