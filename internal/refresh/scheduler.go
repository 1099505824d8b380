// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package refresh

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/toniewert/toniewert/internal/platform/apperr"
)

// SchedulerOptions configure the periodic catalog-wide refresh.
type SchedulerOptions struct {
	Interval time.Duration
	Limit    int
}

// Scheduler triggers catalog-wide refreshes on a fixed interval. When a
// tick collides with a run already in flight it skips the tick instead
// of queueing.
type Scheduler struct {
	coordinator *Coordinator
	opts        SchedulerOptions
	logger      *slog.Logger
}

// NewScheduler builds the background refresh scheduler.
func NewScheduler(coordinator *Coordinator, opts SchedulerOptions, logger *slog.Logger) *Scheduler {
	return &Scheduler{coordinator: coordinator, opts: opts, logger: logger}
}

// Run blocks until ctx is cancelled, triggering a catalog-wide refresh
// every interval. Intended to be started as a goroutine from main.
func (scheduler *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(scheduler.opts.Interval)
	defer ticker.Stop()

	scheduler.logger.Info("refresh_scheduler_started",
		slog.Duration("interval", scheduler.opts.Interval),
		slog.Int("limit", scheduler.opts.Limit))

	for {
		select {
		case <-ctx.Done():
			scheduler.logger.Info("refresh_scheduler_stopped")
			return
		case <-ticker.C:
			run, err := scheduler.coordinator.Trigger(ctx, "", scheduler.opts.Limit, false)
			if err != nil {
				var appError *apperr.AppError
				if errors.As(err, &appError) && appError.Code == "CONFLICT" {
					scheduler.logger.Info("refresh_tick_skipped_conflict")
					continue
				}
				scheduler.logger.Error("refresh_tick_failed", slog.String("error", err.Error()))
				continue
			}
			scheduler.logger.Info("refresh_tick_completed",
				slog.String("run_id", run.RunID), slog.String("status", run.Status))
		}
	}
}
