package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/azizbek/lektor/internal/assessment"
)

// Attempt is one journaled attempt row.
type Attempt struct {
	AttemptID string
	LessonID  string
	Points    int
	Percent   int
	Total     int
	Synced    bool
	CreatedAt time.Time
}

// RecordAttempt upserts one attempt. A re-save of the same attempt
// (failed save that later succeeds) overwrites the unsynced row.
func (s *Store) RecordAttempt(ctx context.Context, entry assessment.JournalEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (attempt_id, lesson_id, points, percent, total, synced, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(attempt_id) DO UPDATE SET
			points = excluded.points,
			percent = excluded.percent,
			total = excluded.total,
			synced = excluded.synced`,
		entry.AttemptID, entry.LessonID, entry.Points, entry.Percent, entry.Total,
		boolToInt(entry.Synced), nowRFC3339())
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// Attempts lists the journaled attempts for a lesson, oldest first.
func (s *Store) Attempts(ctx context.Context, lessonID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT attempt_id, lesson_id, points, percent, total, synced, created_at
		FROM attempts WHERE lesson_id = ? ORDER BY created_at`,
		lessonID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var synced int
		var created string
		if err := rows.Scan(&a.AttemptID, &a.LessonID, &a.Points, &a.Percent, &a.Total, &synced, &created); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Synced = synced != 0
		a.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, a)
	}
	return out, rows.Err()
}

// EnqueuePending stores a submission that no endpoint accepted so a
// later run can retry it.
func (s *Store) EnqueuePending(ctx context.Context, sub assessment.Submission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode pending submission: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_submissions (attempt_id, lesson_id, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(attempt_id) DO UPDATE SET payload = excluded.payload`,
		sub.AttemptID, sub.LessonID, string(payload), nowRFC3339())
	if err != nil {
		return fmt.Errorf("enqueue pending submission: %w", err)
	}
	return nil
}

// PendingSubmissions returns queued submissions, oldest first.
func (s *Store) PendingSubmissions(ctx context.Context) ([]assessment.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM pending_submissions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query pending submissions: %w", err)
	}
	defer rows.Close()

	var out []assessment.Submission
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan pending submission: %w", err)
		}
		var sub assessment.Submission
		if err := json.Unmarshal([]byte(payload), &sub); err != nil {
			// A corrupt row must not wedge the queue.
			continue
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// RemovePending drops a queued submission once it has been saved.
func (s *Store) RemovePending(ctx context.Context, attemptID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_submissions WHERE attempt_id = ?`, attemptID)
	if err != nil {
		return fmt.Errorf("remove pending submission: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
