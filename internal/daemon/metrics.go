package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"herald/internal/config"
	"herald/internal/logging"
	"herald/internal/queue"
)

// metricsServer serves /metrics, /healthz, and /stats on the configured
// listen address. Disabled when no address is set.
type metricsServer struct {
	listen string
	store  *queue.Store
	logger *slog.Logger
	server *http.Server
}

func newMetricsServer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *metricsServer {
	return &metricsServer{
		listen: cfg.Metrics.Listen,
		store:  store,
		logger: logging.NewComponentLogger(logger, "metrics"),
	}
}

func (m *metricsServer) Start() error {
	if m.listen == "" {
		return nil
	}

	listener, err := net.Listen("tcp", m.listen)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		stats, err := m.store.Stats(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{
			"pending":     stats.Pending,
			"processing":  stats.Processing,
			"sent_today":  stats.SentToday,
			"failed":      stats.Failed,
			"dead_letter": stats.DeadLetter,
		})
	})

	m.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := m.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Warn("metrics listener stopped", logging.Error(err))
		}
	}()

	m.logger.Info("metrics listener started", logging.String("addr", listener.Addr().String()))
	return nil
}

func (m *metricsServer) Stop() {
	if m.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = m.server.Shutdown(ctx)
	m.server = nil
}
