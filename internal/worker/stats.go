package worker

import (
	"sync"
	"time"
)

// Stats is a point-in-time snapshot of this worker's run counters.
type Stats struct {
	Sent      int64
	Failed    int64
	Batches   int64
	StartedAt time.Time
}

type statsState struct {
	mu        sync.Mutex
	sent      int64
	failed    int64
	batches   int64
	startedAt time.Time
}

func (s *statsState) start(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = 0
	s.failed = 0
	s.batches = 0
	s.startedAt = at
}

func (s *statsState) addSent() {
	s.mu.Lock()
	s.sent++
	s.mu.Unlock()
}

func (s *statsState) addFailed() {
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
}

func (s *statsState) addBatch() {
	s.mu.Lock()
	s.batches++
	s.mu.Unlock()
}

// Stats returns a snapshot of the run counters.
func (w *Worker) Stats() Stats {
	w.stats.mu.Lock()
	defer w.stats.mu.Unlock()
	return Stats{
		Sent:      w.stats.sent,
		Failed:    w.stats.failed,
		Batches:   w.stats.batches,
		StartedAt: w.stats.startedAt,
	}
}
