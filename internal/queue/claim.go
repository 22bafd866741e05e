package queue

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// MaxRetries is the number of delivery attempts before an alert is routed to
// the dead-letter state.
const MaxRetries = 5

// retryDelays is the backoff ladder indexed by retry count: 1m, 5m, 15m,
// 1h, 4h. Clamped to the last entry should the count ever exceed it.
var retryDelays = []time.Duration{
	60 * time.Second,
	300 * time.Second,
	900 * time.Second,
	3600 * time.Second,
	14400 * time.Second,
}

func backoffDelay(retryCount int) time.Duration {
	idx := retryCount - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(retryDelays) {
		idx = len(retryDelays) - 1
	}
	return retryDelays[idx]
}

// ClaimBatch atomically transitions up to maxCount due pending records to
// processing and returns them in delivery order (priority ascending, then
// scheduled time, then id). The select-and-mark is a single statement, so
// concurrent workers never receive the same record.
func (s *Store) ClaimBatch(ctx context.Context, maxCount int) ([]*Record, error) {
	ctx = ensureContext(ctx)
	if maxCount <= 0 {
		return nil, nil
	}

	now := s.now().UTC()
	query := `UPDATE alerts
        SET status = ?, updated_at = ?
        WHERE id IN (
            SELECT id FROM alerts
            WHERE status = ? AND scheduled_for <= ?
            ORDER BY priority ASC, scheduled_for ASC, id ASC
            LIMIT ?
        )
        RETURNING ` + recordColumns

	var records []*Record
	err := retryOnBusy(ctx, func() error {
		records = records[:0]
		rows, err := s.db.QueryContext(ctx, query,
			StatusProcessing,
			formatTime(now),
			StatusPending,
			formatTime(now),
			maxCount,
		)
		if err != nil {
			return fmt.Errorf("claim batch: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			record, err := scanRecord(rows)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	// RETURNING emits rows in storage order, not subquery order.
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.ScheduledFor.Equal(b.ScheduledFor) {
			return a.ScheduledFor.Before(b.ScheduledFor)
		}
		return a.ID < b.ID
	})
	return records, nil
}

// MarkSent records a successful delivery: processing becomes sent and the
// error text is cleared. Late or duplicate reports (record already sent, or
// not in processing) are no-ops.
func (s *Store) MarkSent(ctx context.Context, id int64) error {
	now := s.now().UTC()
	_, err := s.execWithRetry(ctx,
		`UPDATE alerts SET status = ?, error_message = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusSent, formatTime(now), id, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

// MarkFailed records a failed delivery attempt. The retry counter increments
// by one; at MaxRetries the record is dead-lettered with the final error,
// otherwise it returns to pending with the next rung of the backoff ladder
// applied to its schedule. Reports against records not in processing are
// treated as late duplicates and ignored.
func (s *Store) MarkFailed(ctx context.Context, id int64, errText string) error {
	ctx = ensureContext(ctx)
	now := s.now().UTC()
	truncated := truncateError(errText)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin fail tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var (
			statusStr  string
			retryCount int
		)
		err = tx.QueryRowContext(ctx, `SELECT status, retry_count FROM alerts WHERE id = ?`, id).
			Scan(&statusStr, &retryCount)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load record for fail: %w", err)
		}
		if Status(statusStr) != StatusProcessing {
			return nil
		}

		retryCount++
		if retryCount >= MaxRetries {
			_, err = tx.ExecContext(ctx,
				`UPDATE alerts SET status = ?, retry_count = ?, error_message = ?, updated_at = ?
                 WHERE id = ?`,
				StatusDeadLetter, retryCount, truncated, formatTime(now), id,
			)
		} else {
			next := now.Add(backoffDelay(retryCount))
			_, err = tx.ExecContext(ctx,
				`UPDATE alerts SET status = ?, retry_count = ?, error_message = ?, scheduled_for = ?, updated_at = ?
                 WHERE id = ?`,
				StatusPending, retryCount, truncated, formatTime(next), formatTime(now), id,
			)
		}
		if err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		return tx.Commit()
	})
}
