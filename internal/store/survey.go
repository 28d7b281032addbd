package store

import (
	"context"
	"fmt"
	"time"
)

// SurveyResponse is one submitted feedback survey.
type SurveyResponse struct {
	ID           int64     `json:"id"`
	Best         string    `json:"best"`
	Improve      string    `json:"improve"`
	Satisfaction int       `json:"satisfaction"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// SaveSurvey appends a response and returns its row ID.
func (s *Store) SaveSurvey(ctx context.Context, r SurveyResponse) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO survey_responses (best, improve, satisfaction, submitted_at)
		VALUES (?, ?, ?, ?)
	`, r.Best, r.Improve, r.Satisfaction, r.SubmittedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("write survey: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write survey: %w", err)
	}
	return id, nil
}

// Surveys lists responses in submission order.
func (s *Store) Surveys(ctx context.Context) ([]SurveyResponse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, best, improve, satisfaction, submitted_at
		FROM survey_responses ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read surveys: %w", err)
	}
	defer rows.Close()

	var out []SurveyResponse
	for rows.Next() {
		var r SurveyResponse
		var ms int64
		if err := rows.Scan(&r.ID, &r.Best, &r.Improve, &r.Satisfaction, &ms); err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		r.SubmittedAt = time.UnixMilli(ms)
		out = append(out, r)
	}
	return out, rows.Err()
}
