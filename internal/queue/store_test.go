package queue_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"herald/internal/alert"
	"herald/internal/queue"
	"herald/internal/testsupport"
)

var baseTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

// newClockedStore opens a store whose clock starts at baseTime and can be
// advanced through the returned setter.
func newClockedStore(t *testing.T) (*queue.Store, func(time.Time)) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	var (
		mu      sync.Mutex
		current = baseTime
	)
	store.SetNow(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	})
	return store, func(at time.Time) {
		mu.Lock()
		defer mu.Unlock()
		current = at
	}
}

func TestEnqueueAssignsDefaults(t *testing.T) {
	store, _ := newClockedStore(t)
	ctx := context.Background()

	record := testsupport.MustEnqueue(t, store, queue.EnqueueRequest{
		Symbol:  "aapl",
		Kind:    alert.KindBullishCrossover,
		Message: "50-day MA crossed above 200-day MA",
	})

	if record.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", record.Status)
	}
	if record.Symbol != "AAPL" {
		t.Fatalf("symbol should be upper-cased, got %q", record.Symbol)
	}
	if record.Priority != alert.PriorityHigh {
		t.Fatalf("expected kind default priority high, got %s", record.Priority)
	}
	if record.RetryCount != 0 {
		t.Fatalf("expected retry count 0, got %d", record.RetryCount)
	}
	if len(record.DedupHash) != 16 {
		t.Fatalf("expected 16-char fingerprint, got %q", record.DedupHash)
	}
	if record.ScheduledFor.Before(record.CreatedAt) {
		t.Fatal("scheduled_for must not precede created_at")
	}

	fetched, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.ID != record.ID {
		t.Fatalf("expected to fetch inserted record, got %#v", fetched)
	}
}

func TestEnqueueExplicitPriorityWins(t *testing.T) {
	store, _ := newClockedStore(t)

	record := testsupport.MustEnqueue(t, store, queue.EnqueueRequest{
		Symbol:   "MSFT",
		Kind:     alert.KindDailySummary,
		Message:  "summary",
		Priority: alert.PriorityCritical,
	})
	if record.Priority != alert.PriorityCritical {
		t.Fatalf("explicit priority should bypass the default, got %s", record.Priority)
	}
}

func TestEnqueueRejectsUnknownKind(t *testing.T) {
	store, _ := newClockedStore(t)

	_, err := store.Enqueue(context.Background(), queue.EnqueueRequest{
		Symbol:  "AAPL",
		Kind:    alert.Kind("made_up"),
		Message: "nope",
	})
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestEnqueueSuppressesDuplicateInWindow(t *testing.T) {
	store, _ := newClockedStore(t)
	ctx := context.Background()

	req := testsupport.PriceAlert("AAPL", "2026-03-02-10")
	first := testsupport.MustEnqueue(t, store, req)

	second, err := store.Enqueue(ctx, req)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if second != nil {
		t.Fatalf("expected duplicate suppression, got record %d", second.ID)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != first.ID {
		t.Fatalf("expected exactly the first record to exist, got %d records", len(records))
	}
}

func TestEnqueueAllowsNewRecordAfterWindow(t *testing.T) {
	store, setNow := newClockedStore(t)
	ctx := context.Background()

	req := testsupport.PriceAlert("AAPL", "2026-03-02-10")
	testsupport.MustEnqueue(t, store, req)

	// price_change dedup window is one hour
	setNow(baseTime.Add(61 * time.Minute))
	record, err := store.Enqueue(ctx, req)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if record == nil {
		t.Fatal("expected a fresh record once the window elapsed")
	}
}

func TestDeadLetterDoesNotSuppressFreshEnqueue(t *testing.T) {
	store, setNow := newClockedStore(t)
	ctx := context.Background()

	req := testsupport.PriceAlert("TSLA", "2026-03-02-10")
	record := testsupport.MustEnqueue(t, store, req)

	now := baseTime
	for i := 0; i < queue.MaxRetries; i++ {
		claimed, err := store.ClaimBatch(ctx, 1)
		if err != nil {
			t.Fatalf("ClaimBatch failed: %v", err)
		}
		if len(claimed) != 1 {
			t.Fatalf("attempt %d: expected one claim, got %d", i+1, len(claimed))
		}
		if err := store.MarkFailed(ctx, record.ID, "telegram unreachable"); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}
		updated, err := store.GetByID(ctx, record.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status == queue.StatusPending {
			now = updated.ScheduledFor
			setNow(now)
		}
	}

	dead, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if dead.Status != queue.StatusDeadLetter {
		t.Fatalf("expected dead_letter, got %s", dead.Status)
	}

	fresh, err := store.Enqueue(ctx, req)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if fresh == nil {
		t.Fatal("dead-lettered records must not suppress a fresh enqueue")
	}
}

func TestClaimBatchPriorityOrdering(t *testing.T) {
	store, _ := newClockedStore(t)
	ctx := context.Background()

	priorities := []alert.Priority{alert.PriorityLow, alert.PriorityCritical, alert.PriorityMedium}
	for i, p := range priorities {
		testsupport.MustEnqueue(t, store, queue.EnqueueRequest{
			Symbol:   "AAPL",
			Kind:     alert.KindPriceChange,
			Message:  fmt.Sprintf("alert %d", i),
			Priority: p,
			Context:  fmt.Sprintf("bucket-%d", i),
		})
	}

	claimed, err := store.ClaimBatch(ctx, 3)
	if err != nil {
		t.Fatalf("ClaimBatch failed: %v", err)
	}
	if len(claimed) != 3 {
		t.Fatalf("expected 3 claims, got %d", len(claimed))
	}
	expected := []alert.Priority{alert.PriorityCritical, alert.PriorityMedium, alert.PriorityLow}
	for i, record := range claimed {
		if record.Priority != expected[i] {
			t.Fatalf("position %d: expected %s, got %s", i, expected[i], record.Priority)
		}
		if record.Status != queue.StatusProcessing {
			t.Fatalf("claimed record %d not marked processing: %s", record.ID, record.Status)
		}
	}
}

func TestClaimBatchSkipsFutureRecords(t *testing.T) {
	store, _ := newClockedStore(t)
	ctx := context.Background()

	testsupport.MustEnqueue(t, store, queue.EnqueueRequest{
		Symbol:       "NVDA",
		Kind:         alert.KindEarnings,
		Message:      "earnings call tomorrow",
		ScheduledFor: baseTime.Add(2 * time.Hour),
	})

	claimed, err := store.ClaimBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ClaimBatch failed: %v", err)
	}
	if len(claimed) != 0 {
		t.Fatalf("expected no due records, got %d", len(claimed))
	}
}

func TestClaimBatchMutualExclusion(t *testing.T) {
	store, _ := newClockedStore(t)
	ctx := context.Background()

	const total = 6
	for i := 0; i < total; i++ {
		testsupport.MustEnqueue(t, store, testsupport.PriceAlert(fmt.Sprintf("SYM%d", i), "2026-03-02-10"))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claims  [][]*queue.Record
		claimed = map[int64]int{}
	)
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch, err := store.ClaimBatch(ctx, total)
			if err != nil {
				t.Errorf("ClaimBatch failed: %v", err)
				return
			}
			mu.Lock()
			claims = append(claims, batch)
			for _, record := range batch {
				claimed[record.ID]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	seen := 0
	for id, count := range claimed {
		seen++
		if count > 1 {
			t.Fatalf("record %d claimed by both workers", id)
		}
	}
	if seen != total {
		t.Fatalf("expected %d records claimed overall, got %d", total, seen)
	}
	_ = claims
}

func TestMarkSentIsIdempotent(t *testing.T) {
	store, _ := newClockedStore(t)
	ctx := context.Background()

	record := testsupport.MustEnqueue(t, store, testsupport.PriceAlert("AAPL", "2026-03-02-10"))
	if _, err := store.ClaimBatch(ctx, 1); err != nil {
		t.Fatalf("ClaimBatch failed: %v", err)
	}

	if err := store.MarkSent(ctx, record.ID); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	if err := store.MarkSent(ctx, record.ID); err != nil {
		t.Fatalf("second MarkSent should be a no-op, got %v", err)
	}

	updated, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != queue.StatusSent {
		t.Fatalf("expected sent, got %s", updated.Status)
	}
	if updated.ErrorMessage != "" {
		t.Fatalf("error text should be cleared, got %q", updated.ErrorMessage)
	}
}

func TestMarkFailedAgainstPendingIsIgnored(t *testing.T) {
	store, _ := newClockedStore(t)
	ctx := context.Background()

	record := testsupport.MustEnqueue(t, store, testsupport.PriceAlert("AAPL", "2026-03-02-10"))
	if err := store.MarkFailed(ctx, record.ID, "late report"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	updated, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != queue.StatusPending || updated.RetryCount != 0 {
		t.Fatalf("late fail report must not mutate the record: %+v", updated)
	}

	if err := store.MarkFailed(ctx, 99999, "missing record"); err != nil {
		t.Fatalf("MarkFailed on unknown id should be a no-op, got %v", err)
	}
}

func TestRetryLadder(t *testing.T) {
	store, setNow := newClockedStore(t)
	ctx := context.Background()

	record := testsupport.MustEnqueue(t, store, testsupport.PriceAlert("AAPL", "2026-03-02-10"))

	delays := []time.Duration{60 * time.Second, 300 * time.Second, 900 * time.Second, 3600 * time.Second}
	now := baseTime
	for attempt, delay := range delays {
		claimed, err := store.ClaimBatch(ctx, 10)
		if err != nil {
			t.Fatalf("ClaimBatch failed: %v", err)
		}
		if len(claimed) != 1 || claimed[0].ID != record.ID {
			t.Fatalf("attempt %d: expected to claim record %d, got %d records", attempt+1, record.ID, len(claimed))
		}

		if err := store.MarkFailed(ctx, record.ID, fmt.Sprintf("attempt %d timed out", attempt+1)); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}

		updated, err := store.GetByID(ctx, record.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != queue.StatusPending {
			t.Fatalf("attempt %d: expected pending, got %s", attempt+1, updated.Status)
		}
		if updated.RetryCount != attempt+1 {
			t.Fatalf("attempt %d: expected retry count %d, got %d", attempt+1, attempt+1, updated.RetryCount)
		}
		expected := now.Add(delay)
		if !updated.ScheduledFor.Equal(expected) {
			t.Fatalf("attempt %d: expected next send %s, got %s", attempt+1, expected, updated.ScheduledFor)
		}
		if updated.ErrorMessage == "" {
			t.Fatal("failure must record the error text")
		}

		now = expected
		setNow(now)
	}
}

func TestDeadLetterTransitionIsTerminal(t *testing.T) {
	store, setNow := newClockedStore(t)
	ctx := context.Background()

	record := testsupport.MustEnqueue(t, store, testsupport.PriceAlert("AAPL", "2026-03-02-10"))

	now := baseTime
	for attempt := 1; attempt <= queue.MaxRetries; attempt++ {
		claimed, err := store.ClaimBatch(ctx, 10)
		if err != nil {
			t.Fatalf("ClaimBatch failed: %v", err)
		}
		if len(claimed) != 1 {
			t.Fatalf("attempt %d: expected one claim, got %d", attempt, len(claimed))
		}
		if err := store.MarkFailed(ctx, record.ID, "chat API down"); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}
		updated, err := store.GetByID(ctx, record.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status == queue.StatusPending {
			now = updated.ScheduledFor
			setNow(now)
		}
	}

	dead, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if dead.Status != queue.StatusDeadLetter {
		t.Fatalf("expected dead_letter after %d failures, got %s", queue.MaxRetries, dead.Status)
	}
	if dead.RetryCount != queue.MaxRetries {
		t.Fatalf("expected retry count %d, got %d", queue.MaxRetries, dead.RetryCount)
	}
	if dead.ErrorMessage != "chat API down" {
		t.Fatalf("final error not recorded: %q", dead.ErrorMessage)
	}

	// Dead-lettered records never become claimable again, no matter how much
	// time passes.
	setNow(now.Add(365 * 24 * time.Hour))
	claimed, err := store.ClaimBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ClaimBatch failed: %v", err)
	}
	if len(claimed) != 0 {
		t.Fatalf("dead-lettered record was claimed again: %d records", len(claimed))
	}

	letters, err := store.DeadLetters(ctx)
	if err != nil {
		t.Fatalf("DeadLetters failed: %v", err)
	}
	if len(letters) != 1 || letters[0].ID != record.ID {
		t.Fatalf("expected the record in the dead-letter listing, got %d entries", len(letters))
	}
}

func TestStatsAndCountDue(t *testing.T) {
	store, setNow := newClockedStore(t)
	ctx := context.Background()

	sent := testsupport.MustEnqueue(t, store, testsupport.PriceAlert("AAPL", "2026-03-02-10"))
	if _, err := store.ClaimBatch(ctx, 1); err != nil {
		t.Fatalf("ClaimBatch failed: %v", err)
	}
	if err := store.MarkSent(ctx, sent.ID); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}

	testsupport.MustEnqueue(t, store, testsupport.PriceAlert("MSFT", "2026-03-02-10"))
	testsupport.MustEnqueue(t, store, queue.EnqueueRequest{
		Symbol:       "NVDA",
		Kind:         alert.KindEarnings,
		Message:      "earnings tomorrow",
		ScheduledFor: baseTime.Add(3 * time.Hour),
	})

	summary, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if summary.Pending != 2 {
		t.Fatalf("expected 2 pending, got %d", summary.Pending)
	}
	if summary.SentToday != 1 {
		t.Fatalf("expected 1 sent today, got %d", summary.SentToday)
	}
	if summary.Processing != 0 || summary.DeadLetter != 0 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	due, err := store.CountDue(ctx)
	if err != nil {
		t.Fatalf("CountDue failed: %v", err)
	}
	if due != 1 {
		t.Fatalf("expected 1 due record (the earnings alert is future), got %d", due)
	}

	setNow(baseTime.Add(4 * time.Hour))
	due, err = store.CountDue(ctx)
	if err != nil {
		t.Fatalf("CountDue failed: %v", err)
	}
	if due != 2 {
		t.Fatalf("expected 2 due records after schedule arrives, got %d", due)
	}
}

func TestEnqueuePriceAlert(t *testing.T) {
	store, _ := newClockedStore(t)
	ctx := context.Background()

	record, err := store.EnqueuePriceAlert(ctx, "aapl", 150.50, 134.50, 11.9)
	if err != nil {
		t.Fatalf("EnqueuePriceAlert failed: %v", err)
	}
	if record == nil {
		t.Fatal("expected a record")
	}
	if record.Priority != alert.PriorityCritical {
		t.Fatalf("an 11.9%% move should classify critical, got %s", record.Priority)
	}
	if record.Kind != alert.KindPriceChange {
		t.Fatalf("unexpected kind %s", record.Kind)
	}

	// Same symbol, same hour bucket: suppressed regardless of the move size.
	dup, err := store.EnqueuePriceAlert(ctx, "AAPL", 151.00, 134.50, 12.3)
	if err != nil {
		t.Fatalf("EnqueuePriceAlert failed: %v", err)
	}
	if dup != nil {
		t.Fatalf("expected suppression within the hour bucket, got record %d", dup.ID)
	}
}

func TestEnqueueBatchCountsDuplicates(t *testing.T) {
	store, _ := newClockedStore(t)
	ctx := context.Background()

	reqs := []queue.EnqueueRequest{
		testsupport.PriceAlert("AAPL", "2026-03-02-10"),
		testsupport.PriceAlert("MSFT", "2026-03-02-10"),
		testsupport.PriceAlert("AAPL", "2026-03-02-10"),
	}
	enqueued, skipped, err := store.EnqueueBatch(ctx, reqs)
	if err != nil {
		t.Fatalf("EnqueueBatch failed: %v", err)
	}
	if enqueued != 2 || skipped != 1 {
		t.Fatalf("expected 2 enqueued and 1 skipped, got %d/%d", enqueued, skipped)
	}
}

// TestDeliveryScenario walks the full lifecycle: enqueue, duplicate
// suppression, claim, failure with backoff, reclaim after the delay, success.
func TestDeliveryScenario(t *testing.T) {
	store, setNow := newClockedStore(t)
	ctx := context.Background()

	req := queue.EnqueueRequest{
		Symbol:  "AAPL",
		Kind:    alert.KindPriceChange,
		Message: "📈 *AAPL*: $150.50 (+3.79% from $145.00)",
		Context: "2026-03-02-10",
	}
	record := testsupport.MustEnqueue(t, store, req)

	dup, err := store.Enqueue(ctx, req)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if dup != nil {
		t.Fatal("immediate duplicate should be suppressed")
	}

	claimed, err := store.ClaimBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ClaimBatch failed: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != record.ID {
		t.Fatalf("expected to claim record %d, got %d records", record.ID, len(claimed))
	}
	if claimed[0].Status != queue.StatusProcessing {
		t.Fatalf("claimed record should be processing, got %s", claimed[0].Status)
	}

	if err := store.MarkFailed(ctx, record.ID, "network timeout"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	failed, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if failed.RetryCount != 1 || failed.Status != queue.StatusPending {
		t.Fatalf("expected retry 1 pending, got retry=%d status=%s", failed.RetryCount, failed.Status)
	}
	if !failed.ScheduledFor.Equal(baseTime.Add(60 * time.Second)) {
		t.Fatalf("expected 60s backoff, got %s", failed.ScheduledFor)
	}

	setNow(baseTime.Add(60 * time.Second))
	claimed, err = store.ClaimBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ClaimBatch failed: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != record.ID {
		t.Fatalf("expected to reclaim record %d after backoff", record.ID)
	}

	if err := store.MarkSent(ctx, record.ID); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	final, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if final.Status != queue.StatusSent {
		t.Fatalf("expected sent, got %s", final.Status)
	}
}
