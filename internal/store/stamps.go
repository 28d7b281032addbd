package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roach88/retreat/internal/stamp"
)

// SaveStampEntry upserts the full entry for one activity.
func (s *Store) SaveStampEntry(ctx context.Context, activityID string, e stamp.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("write stamp entry %s: %w", activityID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stamp_entries (activity_id, entry, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(activity_id) DO UPDATE SET entry = excluded.entry, updated_at = excluded.updated_at
	`, activityID, string(data), s.nowMillis())
	if err != nil {
		return fmt.Errorf("write stamp entry %s: %w", activityID, err)
	}
	return nil
}

// StampEntries re-reads every stored entry. Rows whose JSON no longer
// decodes are skipped with a warning.
func (s *Store) StampEntries(ctx context.Context) (map[string]stamp.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT activity_id, entry FROM stamp_entries
		ORDER BY activity_id ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("read stamp entries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]stamp.Entry)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan stamp entry: %w", err)
		}
		var e stamp.Entry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			slog.Warn("skipping malformed stamp entry", "activity", id, "error", err)
			continue
		}
		out[id] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stamp entries: %w", err)
	}
	return out, nil
}
