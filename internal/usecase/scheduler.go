package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"MentionMonitor/internal/ports"
)

// Scheduler wires the cron-like driver with the monitoring cycle.
type Scheduler struct {
	driver  ports.Scheduler
	monitor *Monitor
	logger  *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, monitor *Monitor, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, monitor: monitor, logger: logger}
}

// Start registers the cycle with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.monitor == nil {
		return nil
	}

	job := func(trigger time.Time) {
		_, err := s.monitor.RunCycle(ctx, trigger)
		switch {
		case err == nil || s.logger == nil:
		case errors.Is(err, context.Canceled):
			s.logger.Info("scheduled cycle stopped by shutdown", "trigger", trigger)
		default:
			s.logger.Error("scheduled cycle failed", "trigger", trigger, "err", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
