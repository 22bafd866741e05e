// Package summary produces the scheduled daily queue digest alert.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"herald/internal/alert"
	"herald/internal/config"
	"herald/internal/logging"
	"herald/internal/queue"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether spec is an acceptable cron expression.
func ValidateSchedule(spec string) error {
	_, err := cronParser.Parse(strings.TrimSpace(spec))
	return err
}

// Service enqueues a daily_summary alert on a cron schedule. The alert body
// reports the queue counters, so the digest flows through the same delivery
// pipeline as every other alert.
type Service struct {
	store   *queue.Store
	logger  *slog.Logger
	subject string
	spec    string

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// New builds the summary service from the application config.
func New(store *queue.Store, logger *slog.Logger, cfg *config.Config) *Service {
	return &Service{
		store:   store,
		logger:  logging.NewComponentLogger(logger, "summary"),
		subject: cfg.Summary.Subject,
		spec:    cfg.Summary.Schedule,
	}
}

// Start registers the cron entry and begins scheduling.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("summary service already running")
	}

	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(s.spec, func() {
		if err := s.EnqueueNow(ctx); err != nil {
			s.logger.Warn("daily summary enqueue failed", logging.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("register summary schedule %q: %w", s.spec, err)
	}
	c.Start()

	s.cron = c
	s.running = true
	s.logger.Info("summary schedule registered", logging.String("schedule", s.spec))
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// EnqueueNow builds and enqueues the digest immediately. Duplicate
// suppression bounds it to one digest per UTC day.
func (s *Service) EnqueueNow(ctx context.Context) error {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("load stats for summary: %w", err)
	}

	record, err := s.store.Enqueue(ctx, queue.EnqueueRequest{
		Symbol:  s.subject,
		Kind:    alert.KindDailySummary,
		Message: formatDigest(s.subject, stats),
	})
	if err != nil {
		return err
	}
	if record == nil {
		s.logger.Debug("daily summary already enqueued today")
		return nil
	}
	s.logger.Info("daily summary enqueued", logging.Int64("alert_id", record.ID))
	return nil
}

func formatDigest(subject string, stats queue.StatsSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *%s daily summary*\n", subject)
	fmt.Fprintf(&b, "Sent today: %d\n", stats.SentToday)
	fmt.Fprintf(&b, "Pending: %d\n", stats.Pending)
	fmt.Fprintf(&b, "Processing: %d\n", stats.Processing)
	fmt.Fprintf(&b, "Dead letter: %d", stats.DeadLetter)
	return b.String()
}
