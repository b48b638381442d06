package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingChecker struct {
	checks atomic.Int32
	idle   atomic.Int32
	prunes atomic.Int32
}

func (c *countingChecker) CheckAll(context.Context) (int, error) {
	c.checks.Add(1)
	return 1, nil
}

func (c *countingChecker) CheckIdleAll(context.Context) (int, error) {
	c.idle.Add(1)
	return 0, errors.New("store unavailable")
}

func (c *countingChecker) PruneExpired(context.Context) (int, error) {
	c.prunes.Add(1)
	return 0, nil
}

func TestTrackerWorker_RunsLoopsUntilCancelled(t *testing.T) {
	c := &countingChecker{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewTrackerWorker(c, c, Intervals{
		Notifications: 5 * time.Millisecond,
		Idle:          5 * time.Millisecond,
		Prune:         5 * time.Millisecond,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return c.checks.Load() >= 2 && c.idle.Load() >= 2 && c.prunes.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestTrackerWorker_DisabledLoops(t *testing.T) {
	c := &countingChecker{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewTrackerWorker(c, nil, Intervals{Notifications: 5 * time.Millisecond}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	w.Start(ctx)

	assert.Positive(t, c.checks.Load())
	assert.Zero(t, c.idle.Load())
	assert.Zero(t, c.prunes.Load())
}
