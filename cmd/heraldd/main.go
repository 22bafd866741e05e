// Command heraldd runs the alert delivery daemon: queue worker, daily
// summary scheduler, and optional metrics listener.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"herald/internal/config"
	"herald/internal/daemon"
	"herald/internal/logging"
	"herald/internal/notify"
	"herald/internal/queue"
	"herald/internal/summary"
	"herald/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return
	}

	notifier, err := notify.New(cfg)
	if err != nil {
		logger.Error("configure notifier", logging.Error(err))
		_ = store.Close()
		return
	}

	w := worker.New(store, notifier, logger, worker.OptionsFromConfig(cfg))

	var digest *summary.Service
	if cfg.Summary.Enabled {
		digest = summary.New(store, logger, cfg)
	}

	d, err := daemon.New(cfg, store, logger, w, digest)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("heraldd shutting down")
}
