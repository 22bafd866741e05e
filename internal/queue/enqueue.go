package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"herald/internal/alert"
)

// ErrUnknownKind is returned when a producer submits a kind outside the
// registry. This is a programming error on the producer side and is never
// retried.
var ErrUnknownKind = errors.New("unknown alert kind")

// maxErrorLen bounds stored delivery error text.
const maxErrorLen = 1000

// EnqueueRequest describes one alert to insert.
type EnqueueRequest struct {
	Symbol  string
	Kind    alert.Kind
	Message string
	// Priority overrides the kind default when set to a valid tier;
	// leave at alert.PriorityUnset to use the registry default.
	Priority alert.Priority
	// Context feeds the deduplication fingerprint (see alert.Fingerprint).
	Context string
	// ScheduledFor delays the first delivery attempt; zero means now.
	ScheduledFor time.Time
}

// Enqueue inserts a new pending alert unless a live duplicate exists.
//
// A duplicate is a record with the same fingerprint, created within the
// kind's dedup window, whose status is sent, pending, or processing.
// Dead-lettered records are deliberately not live: once an alert exhausted
// its retries the signal was lost, and a fresh occurrence may fire again.
// Suppression is routine, not a failure; it is reported as (nil, nil).
//
// The duplicate check and insert run in one transaction, so concurrent
// producers racing on the same fingerprint create at most one record.
func (s *Store) Enqueue(ctx context.Context, req EnqueueRequest) (*Record, error) {
	ctx = ensureContext(ctx)

	if !alert.KnownKind(req.Kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, errors.New("symbol is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.New("message is required")
	}

	typeCfg := alert.ConfigFor(req.Kind)
	priority := req.Priority
	if !priority.Valid() {
		priority = typeCfg.DefaultPriority
	}

	now := s.now().UTC()
	hash := alert.Fingerprint(req.Kind, symbol, req.Context, now)

	scheduled := req.ScheduledFor
	if scheduled.IsZero() || scheduled.Before(now) {
		scheduled = now
	}

	var (
		id        int64
		duplicate bool
	)
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin enqueue tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		cutoff := now.Add(-typeCfg.DedupWindow)
		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(
                SELECT 1 FROM alerts
                WHERE dedup_hash = ? AND created_at >= ? AND status IN (?, ?, ?)
            )`,
			hash, formatTime(cutoff), StatusSent, StatusPending, StatusProcessing,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("duplicate check: %w", err)
		}
		if exists == 1 {
			duplicate = true
			return nil
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO alerts (
                symbol, kind, message, priority, status, retry_count,
                scheduled_for, error_message, dedup_hash, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, 0, ?, NULL, ?, ?, ?)`,
			symbol,
			string(req.Kind),
			req.Message,
			int(priority),
			StatusPending,
			formatTime(scheduled),
			hash,
			formatTime(now),
			formatTime(now),
		)
		if err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, nil
	}

	return s.GetByID(ctx, id)
}

// EnqueuePriceAlert formats and enqueues a price-change alert with priority
// derived from the move's magnitude and an hour-bucket dedup context, so a
// symbol can alert repeatedly through the day but at most once per hour.
func (s *Store) EnqueuePriceAlert(ctx context.Context, symbol string, currentPrice, previousPrice, changePercent float64) (*Record, error) {
	direction := "📈"
	if changePercent < 0 {
		direction = "📉"
	}
	message := fmt.Sprintf("%s *%s*: $%.2f (%+.2f%% from $%.2f)",
		direction, strings.ToUpper(strings.TrimSpace(symbol)), currentPrice, changePercent, previousPrice)

	return s.Enqueue(ctx, EnqueueRequest{
		Symbol:   symbol,
		Kind:     alert.KindPriceChange,
		Message:  message,
		Priority: alert.PriorityForChange(changePercent),
		Context:  alert.HourBucket(s.now()),
	})
}

// EnqueueBatch enqueues several alerts with per-item dedup, returning how
// many were inserted and how many were suppressed as duplicates. The first
// store error aborts the batch.
func (s *Store) EnqueueBatch(ctx context.Context, reqs []EnqueueRequest) (enqueued, skipped int, err error) {
	for _, req := range reqs {
		record, err := s.Enqueue(ctx, req)
		if err != nil {
			return enqueued, skipped, err
		}
		if record == nil {
			skipped++
			continue
		}
		enqueued++
	}
	return enqueued, skipped, nil
}

func truncateError(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > maxErrorLen {
		return text[:maxErrorLen]
	}
	return text
}
