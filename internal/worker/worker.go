// Package worker drains the alert queue and hands records to the notifier.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"herald/internal/config"
	"herald/internal/logging"
	"herald/internal/notify"
	"herald/internal/queue"
)

// Options holds the poll loop tuning knobs.
type Options struct {
	PollInterval time.Duration
	BatchSize    int
	SendDelay    time.Duration
	SendTimeout  time.Duration
	DryRun       bool
}

// OptionsFromConfig extracts worker options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PollInterval: cfg.PollInterval(),
		BatchSize:    cfg.Worker.BatchSize,
		SendDelay:    cfg.SendDelay(),
		SendTimeout:  cfg.SendTimeout(),
		DryRun:       cfg.Worker.DryRun,
	}
}

func (o *Options) applyDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 30 * time.Second
	}
}

// Worker polls the queue, claims due alerts, and delivers them.
type Worker struct {
	store      *queue.Store
	notifier   notify.Notifier
	logger     *slog.Logger
	opts       Options
	instanceID string
	limiter    *rate.Limiter

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	stats statsState
}

// New constructs a worker. A nil logger disables logging.
func New(store *queue.Store, notifier notify.Notifier, logger *slog.Logger, opts Options) *Worker {
	opts.applyDefaults()

	limit := rate.Inf
	if opts.SendDelay > 0 {
		limit = rate.Every(opts.SendDelay)
	}

	return &Worker{
		store:      store,
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, "worker"),
		opts:       opts,
		instanceID: uuid.NewString()[:8],
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// InstanceID identifies this worker in logs.
func (w *Worker) InstanceID() string { return w.instanceID }

// Start begins background processing.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("worker already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.stats.start(time.Now())

	w.logger.Info("worker started",
		logging.String("instance", w.instanceID),
		logging.String("channel", w.notifier.Name()),
		logging.Duration("poll_interval", w.opts.PollInterval),
		logging.Int("batch_size", w.opts.BatchSize),
		logging.Bool("dry_run", w.opts.DryRun),
	)

	w.wg.Add(1)
	go w.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()

	snapshot := w.Stats()
	w.logger.Info("worker stopped",
		logging.String("instance", w.instanceID),
		logging.Int64("sent", snapshot.Sent),
		logging.Int64("failed", snapshot.Failed),
		logging.Int64("batches", snapshot.Batches),
		logging.Duration("uptime", time.Since(snapshot.StartedAt).Round(time.Second)),
	)
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		due, err := w.store.CountDue(ctx)
		if err != nil {
			w.logger.Warn("due count failed; retrying after poll interval", logging.Error(err))
			w.waitForPoll(ctx)
			continue
		}
		if due == 0 {
			w.waitForPoll(ctx)
			continue
		}

		batch, err := w.store.ClaimBatch(ctx, w.opts.BatchSize)
		if err != nil {
			w.logger.Warn("claim failed; retrying after poll interval", logging.Error(err))
			w.waitForPoll(ctx)
			continue
		}
		if len(batch) == 0 {
			w.waitForPoll(ctx)
			continue
		}

		w.stats.addBatch()
		batchesTotal.Inc()
		claimedTotal.Add(len(batch))
		w.logger.Debug("claimed batch", logging.Int("count", len(batch)))

		if done := w.deliverBatch(ctx, batch); done {
			return
		}
	}
}

// deliverBatch sends each claimed record in order. On shutdown the in-flight
// delivery finishes, then the rest of the batch is released back through the
// failure path so no record stays stuck in processing. Returns true when the
// context was cancelled.
func (w *Worker) deliverBatch(ctx context.Context, batch []*queue.Record) bool {
	for i, record := range batch {
		if ctx.Err() != nil {
			w.releaseRemaining(ctx, batch[i:])
			return true
		}
		if err := w.limiter.Wait(ctx); err != nil {
			w.releaseRemaining(ctx, batch[i:])
			return true
		}
		w.deliver(ctx, record)
	}
	return ctx.Err() != nil
}

func (w *Worker) deliver(ctx context.Context, record *queue.Record) {
	logger := w.logger.With(
		logging.Int64("alert_id", record.ID),
		logging.String("symbol", record.Symbol),
		logging.String("kind", string(record.Kind)),
		logging.Int("retry", record.RetryCount),
	)

	if w.opts.DryRun {
		if err := w.store.MarkSent(ctx, record.ID); err != nil {
			logger.Error("dry-run mark sent failed", logging.Error(err))
			return
		}
		w.stats.addSent()
		sentTotal.Inc()
		logger.Info("alert sent (dry run)")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.opts.SendTimeout)
	err := w.notifier.Send(sendCtx, notify.Message{
		Title:    "Herald - " + record.Kind.DisplayName(),
		Body:     record.Message,
		Priority: record.Priority,
	})
	cancel()

	// Record the outcome even while shutting down, otherwise the record is
	// stranded in processing until the next daemon start.
	storeCtx := context.WithoutCancel(ctx)
	if err != nil {
		if markErr := w.store.MarkFailed(storeCtx, record.ID, err.Error()); markErr != nil {
			logger.Error("mark failed errored", logging.Error(markErr))
		}
		w.stats.addFailed()
		failedTotal.Inc()
		logger.Warn("delivery failed", logging.Error(err))
		return
	}

	if err := w.store.MarkSent(storeCtx, record.ID); err != nil {
		logger.Error("mark sent failed", logging.Error(err))
		return
	}
	w.stats.addSent()
	sentTotal.Inc()
	logger.Info("alert sent", logging.String("channel", w.notifier.Name()))
}

// releaseRemaining fails claimed records that were never attempted so they
// return to pending with a backoff instead of sitting in processing.
func (w *Worker) releaseRemaining(ctx context.Context, remaining []*queue.Record) {
	if len(remaining) == 0 {
		return
	}
	storeCtx := context.WithoutCancel(ctx)
	for _, record := range remaining {
		if err := w.store.MarkFailed(storeCtx, record.ID, "worker shutdown before delivery"); err != nil {
			w.logger.Error("release on shutdown failed",
				logging.Int64("alert_id", record.ID),
				logging.Error(err),
			)
		}
	}
	w.logger.Info("released unsent batch records", logging.Int("count", len(remaining)))
}

func (w *Worker) waitForPoll(ctx context.Context) {
	timer := time.NewTimer(w.opts.PollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
