package testsupport

import (
	"context"
	"testing"

	"herald/internal/alert"
	"herald/internal/config"
	"herald/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustEnqueue inserts an alert for tests, failing when the store errors or
// suppresses the insert as a duplicate.
func MustEnqueue(t testing.TB, store *queue.Store, req queue.EnqueueRequest) *queue.Record {
	t.Helper()

	record, err := store.Enqueue(context.Background(), req)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	if record == nil {
		t.Fatalf("store.Enqueue suppressed %s/%s as duplicate", req.Kind, req.Symbol)
	}
	return record
}

// PriceAlert builds a plausible price-change request for tests.
func PriceAlert(symbol, bucket string) queue.EnqueueRequest {
	return queue.EnqueueRequest{
		Symbol:  symbol,
		Kind:    alert.KindPriceChange,
		Message: "📈 *" + symbol + "*: price moved",
		Context: bucket,
	}
}
