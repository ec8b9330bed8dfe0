package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// Scheduler wires the interval driver with the runner.
type Scheduler struct {
	driver ports.Scheduler
	runner *Runner
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, runner *Runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, runner: runner, logger: logger}
}

// Start registers every feed with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		err := s.runner.RunAll(ctx, RunOptions{})
		if err == nil || s.logger == nil {
			return
		}
		if errors.Is(err, domain.ErrRunInProgress) {
			s.logger.Warn("scheduled run skipped, previous run still active", "trigger", trigger)
			return
		}
		s.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
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
