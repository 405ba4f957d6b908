package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	applog "moodqueue/internal/log"
)

// Sweeper is the periodic job the scheduler runs.
type Sweeper interface {
	ProcessPendingMoods(ctx context.Context) (int, error)
}

// Scheduler runs the pending sweep on a cron schedule. Overlapping runs are
// skipped.
type Scheduler struct {
	sweeper  Sweeper
	schedule string
	logger   *applog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewScheduler(sweeper Sweeper, schedule string, logger *applog.Logger) *Scheduler {
	if logger == nil {
		logger = applog.Nop()
	}
	return &Scheduler{
		sweeper:  sweeper,
		schedule: schedule,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// Start sweeps once right away and then on every tick of the schedule.
// Sweeps stop when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler is already running")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.schedule, func() { s.sweep(ctx) }); err != nil {
		return fmt.Errorf("add sweep job %q: %w", s.schedule, err)
	}

	s.sweep(ctx)
	c.Start()
	s.cron = c
	s.running = true

	s.logger.InfoContext(ctx, "Sync scheduler started", "schedule", s.schedule)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("Sync scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.sweeper.ProcessPendingMoods(ctx); err != nil && ctx.Err() == nil {
		s.logger.ErrorContext(ctx, "Pending sweep failed", applog.FieldError, err)
	}
}
