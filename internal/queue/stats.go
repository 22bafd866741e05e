package queue

import (
	"context"
	"fmt"
	"time"
)

// Stats returns queue counts for the operator surface.
func (s *Store) Stats(ctx context.Context) (StatsSummary, error) {
	ctx = ensureContext(ctx)

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM alerts GROUP BY status`)
	if err != nil {
		return StatsSummary{}, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	var summary StatsSummary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return StatsSummary{}, err
		}
		switch status {
		case StatusPending:
			summary.Pending = count
		case StatusProcessing:
			summary.Processing = count
		case StatusFailed:
			summary.Failed = count
		case StatusDeadLetter:
			summary.DeadLetter = count
		}
	}
	if err := rows.Err(); err != nil {
		return StatsSummary{}, err
	}

	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM alerts WHERE status = ? AND created_at >= ?`,
		StatusSent, formatTime(dayStart),
	).Scan(&summary.SentToday)
	if err != nil {
		return StatsSummary{}, fmt.Errorf("sent today count: %w", err)
	}

	return summary, nil
}

// CountDue returns the number of pending records whose schedule has arrived.
// The worker uses this as a cheap emptiness check before claiming.
func (s *Store) CountDue(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM alerts WHERE status = ? AND scheduled_for <= ?`,
		StatusPending, formatTime(s.now().UTC()),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count due: %w", err)
	}
	return count, nil
}

// DeadLetters returns dead-lettered records, oldest first, for operator
// review.
func (s *Store) DeadLetters(ctx context.Context) ([]*Record, error) {
	return s.List(ctx, StatusDeadLetter)
}
