package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerTicks(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	s := NewIntervalScheduler(10*time.Millisecond, true)

	if err := s.Start(context.Background(), func(time.Time) { calls.Add(1) }); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 3 ticks, got %d", calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if calls.Load() != after {
		t.Fatalf("job ran after Stop: %d -> %d", after, calls.Load())
	}
}

func TestIntervalSchedulerRejectsZeroInterval(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(0, false)
	if err := s.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatal("expected error for zero interval")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop on idle scheduler: %v", err)
	}
}
