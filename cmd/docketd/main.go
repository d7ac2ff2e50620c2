package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"docket/internal/config"
	"docket/internal/daemon"
	"docket/internal/logging"
	"docket/internal/queue"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
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

	services, err := daemon.BuildServices(cfg, store, logger)
	if err != nil {
		logger.Error("build services", logging.Error(err))
		_ = store.Close()
		return
	}
	defer services.Close()

	d, err := daemon.New(cfg, store, services.Watcher, services.Processor, logger)
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
	logger.Info("docketd shutting down")
}
