package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled cleanup.
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron expression, never two at a time.
type Scheduler struct {
	job    Job
	cron   *cron.Cron
	logger *slog.Logger

	mu       sync.Mutex
	schedule string
	entry    cron.EntryID
	running  bool

	busy    atomic.Bool
	runs    atomic.Int64
	skipped atomic.Int64
}

// NewScheduler creates a scheduler for job.
func NewScheduler(schedule string, job Job, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		job:      job,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger.With("component", "sweep.scheduler"),
	}
}

// Start schedules the job and returns immediately. The scheduler stops
// when ctx is cancelled.
//
// Common cron expressions:
//   - "0 2 * * 0"    - Weekly on Sunday at 2 AM
//   - "0 3 1 * *"    - Monthly on the 1st at 3 AM
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if err := s.add(ctx, s.schedule); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("cleanup scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Reschedule replaces the cron expression of a running scheduler.
func (s *Scheduler) Reschedule(ctx context.Context, schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if schedule == s.schedule {
		return nil
	}

	old := s.entry
	if err := s.add(ctx, schedule); err != nil {
		return err
	}
	if old != 0 {
		s.cron.Remove(old)
	}

	s.logger.Info("cleanup schedule changed", "from", s.schedule, "to", schedule)
	s.schedule = schedule
	return nil
}

func (s *Scheduler) add(ctx context.Context, schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	id, err := s.cron.AddFunc(schedule, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	s.entry = id
	return nil
}

// RunOnce runs the job now unless a run is already in progress. It
// reports whether the job ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.busy.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.logger.Warn("previous cleanup still running, skipping trigger")
		return false
	}
	defer s.busy.Store(false)

	s.runs.Add(1)
	s.logger.Info("starting scheduled cleanup")

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled cleanup failed",
			"error", err,
			"duration", time.Since(start),
		)
		return true
	}

	s.logger.Info("scheduled cleanup completed", "duration", time.Since(start))
	return true
}

// Stop stops the scheduler and waits for a running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("cleanup scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Schedule returns the active cron expression.
func (s *Scheduler) Schedule() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.schedule
}

// NextRun returns the next scheduled run time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry == 0 {
		return nil
	}

	entry := s.cron.Entry(s.entry)
	if !entry.Valid() {
		return nil
	}

	next := entry.Next
	return &next
}

// Runs returns how many times the job ran and how many triggers were
// skipped because a run was in progress.
func (s *Scheduler) Runs() (runs, skipped int64) {
	return s.runs.Load(), s.skipped.Load()
}
