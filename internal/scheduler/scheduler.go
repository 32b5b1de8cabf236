// Package scheduler supervises the periodic background tasks: the
// fetch-and-deliver cycle and the digest flush.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ethanocurtis/MultiNotify/internal/storage"
)

// Runner is the cycle work the scheduler drives.
type Runner interface {
	RunCycle(ctx context.Context)
	FlushDigests(ctx context.Context)
}

// Scheduler owns exactly one poll loop and one digest loop per process
// lifetime. Each loop waits for its previous iteration to finish
// before sleeping, so a cycle never overlaps with itself.
type Scheduler struct {
	runner     Runner
	store      storage.Storage
	log        *slog.Logger
	digestTick time.Duration
	started    atomic.Bool
}

// New creates a Scheduler.
func New(runner Runner, store storage.Storage, log *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:     runner,
		store:      store,
		log:        log,
		digestTick: time.Minute,
	}
}

// SetDigestTick overrides the default 1-minute digest-flush interval.
func (s *Scheduler) SetDigestTick(d time.Duration) {
	s.digestTick = d
}

// Start launches the background loops. Calling it again is a no-op,
// so a transport reconnect can never double-start the tasks.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		s.log.Warn("scheduler already started")
		return
	}
	go s.pollLoop(ctx)
	go s.digestLoop(ctx)
}

// pollLoop re-reads the configured interval after every cycle so that
// an admin /setinterval takes effect without a restart.
func (s *Scheduler) pollLoop(ctx context.Context) {
	for {
		s.runner.RunCycle(ctx)

		interval := 5 * time.Minute
		if g, err := s.store.GetGlobal(ctx); err != nil {
			s.log.Error("load poll interval", "error", err)
		} else {
			interval = g.Interval()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func (s *Scheduler) digestLoop(ctx context.Context) {
	ticker := time.NewTicker(s.digestTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runner.FlushDigests(ctx)
		}
	}
}
