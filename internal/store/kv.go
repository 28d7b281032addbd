package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Keys of the kv table.
const (
	KeyUserName           = "userName"
	KeyCompletedMissions  = "completed_missions"
	KeyTestimonyDraft     = "testimony_draft"
	KeyTestimonySubmitted = "testimony_submitted"
	KeySplashShown        = "splash_shown"
)

// Get returns the value stored under key; ok is false when absent.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts key. Last write wins.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, s.nowMillis())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// UserName returns the onboarded name, or "" before onboarding.
func (s *Store) UserName(ctx context.Context) (string, error) {
	v, _, err := s.Get(ctx, KeyUserName)
	return v, err
}

// SetUserName persists the onboarded name.
func (s *Store) SetUserName(ctx context.Context, name string) error {
	return s.Set(ctx, KeyUserName, name)
}

// CompletedMissions returns the completed checklist mission IDs, sorted.
// A malformed stored value reads back as empty.
func (s *Store) CompletedMissions(ctx context.Context) ([]int, error) {
	v, ok, err := s.Get(ctx, KeyCompletedMissions)
	if err != nil || !ok {
		return []int{}, err
	}
	var ids []int
	if err := json.Unmarshal([]byte(v), &ids); err != nil {
		slog.Warn("ignoring malformed stored value", "key", KeyCompletedMissions, "error", err)
		return []int{}, nil
	}
	sort.Ints(ids)
	return ids, nil
}

// SaveCompletedMissions persists the completed mission IDs as a JSON array.
func (s *Store) SaveCompletedMissions(ctx context.Context, ids []int) error {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	if sorted == nil {
		sorted = []int{}
	}
	data, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("marshal completed missions: %w", err)
	}
	return s.Set(ctx, KeyCompletedMissions, string(data))
}

// Testimony returns the saved draft and the submitted testimony.
func (s *Store) Testimony(ctx context.Context) (draft, submitted string, err error) {
	if draft, _, err = s.Get(ctx, KeyTestimonyDraft); err != nil {
		return "", "", err
	}
	if submitted, _, err = s.Get(ctx, KeyTestimonySubmitted); err != nil {
		return "", "", err
	}
	return draft, submitted, nil
}

// SubmitTestimony stores the submitted text and drops the draft in one
// transaction.
func (s *Store) SubmitTestimony(ctx context.Context, text string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("submit testimony: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, KeyTestimonySubmitted, text, s.nowMillis()); err != nil {
		return fmt.Errorf("submit testimony: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, KeyTestimonyDraft); err != nil {
		return fmt.Errorf("submit testimony: clear draft: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("submit testimony: commit: %w", err)
	}
	return nil
}

// SplashShown reports whether the intro splash was already shown.
func (s *Store) SplashShown(ctx context.Context) (bool, error) {
	v, _, err := s.Get(ctx, KeySplashShown)
	return v == "true", err
}

// MarkSplashShown records that the splash was shown.
func (s *Store) MarkSplashShown(ctx context.Context) error {
	return s.Set(ctx, KeySplashShown, "true")
}
