package queue

import (
	"strings"
	"time"

	"herald/internal/alert"
)

// Status represents the delivery lifecycle of an alert record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
	StatusDeadLetter Status = "dead_letter"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusSent,
	StatusFailed,
	StatusDeadLetter,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether a status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusDeadLetter
}

// Record is one alert row in the queue.
type Record struct {
	ID           int64
	Symbol       string
	Kind         alert.Kind
	Message      string
	Priority     alert.Priority
	Status       Status
	RetryCount   int
	ScheduledFor time.Time
	ErrorMessage string
	DedupHash    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Terminal reports whether the record reached a final state.
func (r Record) Terminal() bool {
	return r.Status.Terminal()
}

// StatsSummary aggregates queue counts for the operator surface. SentToday
// counts records created and sent within the current UTC day; Failed is kept
// for taxonomy parity with producers that inspect it, though records route
// straight from processing back to pending (or on to dead_letter) and never
// rest in failed.
type StatsSummary struct {
	Pending    int
	Processing int
	SentToday  int
	Failed     int
	DeadLetter int
}
