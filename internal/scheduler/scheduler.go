package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"todo-notifier/internal/pkg/clock"
	"todo-notifier/internal/pkg/errs"
	"todo-notifier/internal/pkg/schedule"
	"todo-notifier/internal/usecase/commands"
	"todo-notifier/internal/usecase/shared"
)

// SweepFunc is commands.NotificationCommands.RunSweep.
type SweepFunc func(ctx context.Context) (*commands.SweepReport, error)

// Scheduler runs a sweep at every configured time of day. Sweeps run on the
// scheduler goroutine, so a long sweep delays the next one instead of
// overlapping it; fire times that passed meanwhile collapse into one run.
// A slot whose sweep stopped part way is resumed as soon as the scheduler starts.
type Scheduler struct {
	daily *schedule.Daily
	clock clock.Clock
	sweep SweepFunc
	reads shared.CommandReads
	// after is time.After, replaceable in tests
	after func(d time.Duration) <-chan time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(daily *schedule.Daily, clk clock.Clock, sweep SweepFunc, reads shared.CommandReads) *Scheduler {
	return &Scheduler{
		daily: daily,
		clock: clk,
		sweep: sweep,
		reads: reads,
		after: time.After,
	}
}

func (s *Scheduler) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
	slog.Info("sweep scheduler started", "next_run", s.daily.Next(s.clock.Now()).Format(time.RFC3339))
	return nil
}

// Stop cancels a running sweep; the next Start resumes it from its checkpoint
// while the slot is still current.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	if s.slotUnfinished(ctx) {
		s.runOnce(ctx)
	}
	for {
		next := s.daily.Next(s.clock.Now())
		wait := next.Sub(s.clock.Now())
		if wait < 0 {
			wait = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-s.after(wait):
		}

		s.runOnce(ctx)
	}
}

// slotUnfinished reports whether the current slot has a checkpoint that never
// reached the last page.
func (s *Scheduler) slotUnfinished(ctx context.Context) bool {
	if s.reads == nil {
		return false
	}
	slot := s.daily.Slot(s.clock.Now())
	cp, err := s.reads.SweepCheckpointBySlot(ctx, slot)
	if err != nil {
		slog.Warn("sweep checkpoint unreadable, waiting for the next slot", "slot", slot, "error", err.Error())
		return false
	}
	if cp == nil || cp.Completed {
		return false
	}
	slog.Info("resuming unfinished sweep", "slot", slot, "processed", cp.Processed)
	return true
}

func (s *Scheduler) runOnce(ctx context.Context) {
	report, err := s.sweep(ctx)
	switch {
	case errs.Is(err, commands.ErrSweepInProgress):
		slog.Warn("scheduled sweep skipped, previous sweep still running")
	case err != nil:
		slog.Error("scheduled sweep failed", "error", err.Error(), "stack", errs.ExtractStackLines(err, 12))
	case len(report.Failed) > 0:
		slog.Warn("scheduled sweep finished with failures", "slot", report.Slot, "failed", len(report.Failed))
	}
}
