package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethanocurtis/MultiNotify/internal/storage"
)

type countingRunner struct {
	cycles  atomic.Int64
	flushes atomic.Int64
}

func (r *countingRunner) RunCycle(context.Context)     { r.cycles.Add(1) }
func (r *countingRunner) FlushDigests(context.Context) { r.flushes.Add(1) }

func newTestScheduler(t *testing.T) (*Scheduler, *countingRunner) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	runner := &countingRunner{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(runner, store, log), runner
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestStartRunsLoops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, runner := newTestScheduler(t)
	s.SetDigestTick(10 * time.Millisecond)
	s.Start(ctx)

	waitFor(t, func() bool { return runner.cycles.Load() >= 1 })
	waitFor(t, func() bool { return runner.flushes.Load() >= 2 })
}

func TestStartIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, runner := newTestScheduler(t)
	s.SetDigestTick(time.Hour)
	s.Start(ctx)
	waitFor(t, func() bool { return runner.cycles.Load() >= 1 })

	// A second Start must not spawn a second poll loop. The stored
	// interval is minutes long, so any extra cycle within the sleep
	// below would come from a duplicate loop.
	before := runner.cycles.Load()
	s.Start(ctx)
	s.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	if got := runner.cycles.Load(); got != before {
		t.Errorf("cycles after repeated Start = %d, want %d", got, before)
	}
}

func TestLoopsStopOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s, runner := newTestScheduler(t)
	s.SetDigestTick(10 * time.Millisecond)
	s.Start(ctx)
	waitFor(t, func() bool { return runner.flushes.Load() >= 1 })

	cancel()
	time.Sleep(30 * time.Millisecond)
	after := runner.flushes.Load()
	time.Sleep(50 * time.Millisecond)

	if got := runner.flushes.Load(); got != after {
		t.Errorf("digest loop kept running after cancel: %d -> %d", after, got)
	}
}
