// Package worker runs the periodic tracker checks in the background.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Checker runs one pass of the background checks over all users
type Checker interface {
	CheckAll(ctx context.Context) (int, error)
	CheckIdleAll(ctx context.Context) (int, error)
}

// Pruner removes expired invitations
type Pruner interface {
	PruneExpired(ctx context.Context) (int, error)
}

// Intervals configures how often each loop runs
type Intervals struct {
	Notifications time.Duration
	Idle          time.Duration
	Prune         time.Duration
}

// TrackerWorker queues deadline, reminder and idle notifications
type TrackerWorker struct {
	checker   Checker
	pruner    Pruner
	intervals Intervals
	logger    *slog.Logger
}

// NewTrackerWorker creates a new TrackerWorker
func NewTrackerWorker(checker Checker, pruner Pruner, intervals Intervals, logger *slog.Logger) *TrackerWorker {
	return &TrackerWorker{
		checker:   checker,
		pruner:    pruner,
		intervals: intervals,
		logger:    logger,
	}
}

// Start runs all loops until ctx is cancelled
func (tw *TrackerWorker) Start(ctx context.Context) {
	tw.logger.Info("Tracker worker started",
		"notification_interval", tw.intervals.Notifications,
		"idle_interval", tw.intervals.Idle)

	var wg sync.WaitGroup
	tw.loop(ctx, &wg, "notifications", tw.intervals.Notifications, tw.checker.CheckAll)
	tw.loop(ctx, &wg, "idle", tw.intervals.Idle, tw.checker.CheckIdleAll)
	if tw.pruner != nil {
		tw.loop(ctx, &wg, "invitations", tw.intervals.Prune, tw.pruner.PruneExpired)
	}
	wg.Wait()

	tw.logger.Info("Tracker worker stopped")
}

func (tw *TrackerWorker) loop(ctx context.Context, wg *sync.WaitGroup, name string, every time.Duration, run func(context.Context) (int, error)) {
	if every <= 0 {
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := run(ctx)
				if err != nil && ctx.Err() == nil {
					tw.logger.Error("Background check failed", "check", name, "error", err)
					continue
				}
				if n > 0 {
					tw.logger.Debug("Background check done", "check", name, "count", n)
				}
			}
		}
	}()
}
