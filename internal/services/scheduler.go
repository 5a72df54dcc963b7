package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
)

// JobRunner is anything run once per local day.
type JobRunner interface {
	Run(ctx context.Context, now time.Time) (JobReport, error)
}

// SchedulerConfig holds scheduler options
type SchedulerConfig struct {
	// RunOnStart runs the job immediately before waiting for midnight.
	RunOnStart bool
	// Now and After replace the wall clock. Used by tests.
	Now   func() time.Time
	After func(time.Duration) <-chan time.Time
}

// Scheduler fires a job at every local midnight
type Scheduler struct {
	job    JobRunner
	clock  core.Clock
	config SchedulerConfig
	logger *applog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a scheduler for job on clock's local days
func NewScheduler(job JobRunner, clock core.Clock, config SchedulerConfig, logger *applog.Logger) *Scheduler {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.After == nil {
		config.After = time.After
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Scheduler{
		job:    job,
		clock:  clock,
		config: config,
		logger: logger.WithComponent(applog.ComponentScheduler),
	}
}

// Start begins the scheduling loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go func() {
		defer close(doneCh)
		s.loop(ctx, stopCh)
	}()

	s.logger.InfoContext(ctx, "Scheduler started", "run_on_start", s.config.RunOnStart)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		s.logger.InfoContext(ctx, "Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the scheduler loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Run blocks until ctx is cancelled. Suited to an errgroup.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Stop(stopCtx)
}

func (s *Scheduler) loop(ctx context.Context, stopCh <-chan struct{}) {
	if s.config.RunOnStart {
		s.tick(ctx)
	}
	for {
		now := s.config.Now()
		next := s.clock.NextLocalMidnight(now)
		s.logger.DebugContext(ctx, "Next daily run scheduled", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-s.config.After(next.Sub(now)):
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.config.Now()
	report, err := s.job.Run(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Daily job failed", applog.FieldError, err)
		return
	}
	if len(report.Failed) > 0 {
		s.logger.WarnContext(ctx, "Daily job finished with failures",
			"failed_users", report.Failed)
	}
}
