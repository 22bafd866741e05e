package queue

import "time"

// SetNow overrides the store clock so tests can advance time.
func (s *Store) SetNow(now func() time.Time) {
	s.now = now
}
