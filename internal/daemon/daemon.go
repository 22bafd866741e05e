package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"herald/internal/config"
	"herald/internal/logging"
	"herald/internal/queue"
	"herald/internal/summary"
	"herald/internal/worker"
)

// Daemon coordinates the background services and enforces single-instance
// execution through a lock file in the data directory.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *queue.Store
	worker  *worker.Worker
	summary *summary.Service
	metrics *metricsServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Worker       worker.Stats
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies. The summary service
// may be nil when the daily digest is disabled.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, w *worker.Worker, digest *summary.Service) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || w == nil {
		return nil, errors.New("daemon requires config, store, logger, and worker")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "heraldd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		worker:   w,
		summary:  digest,
		metrics:  newMetricsServer(cfg, store, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the background services.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another herald daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.worker.Start(runCtx); err != nil {
		d.teardownAfterStartFailure()
		return fmt.Errorf("start worker: %w", err)
	}
	if d.summary != nil {
		if err := d.summary.Start(runCtx); err != nil {
			d.worker.Stop()
			d.teardownAfterStartFailure()
			return fmt.Errorf("start summary service: %w", err)
		}
	}
	if err := d.metrics.Start(); err != nil {
		if d.summary != nil {
			d.summary.Stop()
		}
		d.worker.Stop()
		d.teardownAfterStartFailure()
		return fmt.Errorf("start metrics listener: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("herald daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) teardownAfterStartFailure() {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.metrics.Stop()
	if d.summary != nil {
		d.summary.Stop()
	}
	d.worker.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("herald daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Worker:       d.worker.Stats(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
