package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"MentionMonitor/internal/app"
	"MentionMonitor/internal/config"
	"MentionMonitor/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single monitoring cycle and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}

	runErr := application.Run(ctx, *once)
	if err := application.Close(); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}
	if runErr != nil {
		logger.Error("application stopped", "error", runErr)
		os.Exit(1)
	}
}
