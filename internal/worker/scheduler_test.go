package worker

import (
	"context"
	"sync/atomic"
	"testing"
)

type countingSweeper struct {
	runs atomic.Int32
}

func (c *countingSweeper) ProcessPendingMoods(context.Context) (int, error) {
	c.runs.Add(1)
	return 0, nil
}

func TestSchedulerStartStop(t *testing.T) {
	sw := &countingSweeper{}
	s := NewScheduler(sw, "@every 1h", nil)
	ctx := context.Background()

	if s.IsRunning() {
		t.Fatal("scheduler should not be running initially")
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("scheduler should be running")
	}
	if got := sw.runs.Load(); got != 1 {
		t.Fatalf("Start should sweep once immediately, ran %d", got)
	}
	if err := s.Start(ctx); err == nil {
		t.Fatal("second Start should fail")
	}

	s.Stop()
	if s.IsRunning() {
		t.Fatal("scheduler should be stopped")
	}
	s.Stop() // stopping twice is fine
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	s := NewScheduler(&countingSweeper{}, "whenever", nil)
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected schedule parse error")
	}
	if s.IsRunning() {
		t.Fatal("scheduler should not run after a failed start")
	}
}

func TestSchedulerSkipsCanceledContext(t *testing.T) {
	sw := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewScheduler(sw, "@every 1h", nil)
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	if sw.runs.Load() != 0 {
		t.Fatal("no sweep should run on a canceled context")
	}
}
