package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"project-planner/backend/internal/config"
	"project-planner/backend/internal/logger"
	"project-planner/backend/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.New(cfg.Log, cfg.IsProduction())
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	log := zl.Sugar()

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Errorw("failed to start server", "error", err)
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
