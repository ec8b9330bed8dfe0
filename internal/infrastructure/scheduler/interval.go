package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DocDigest/internal/ports"
)

// IntervalScheduler triggers a job at a fixed interval using time.Ticker.
type IntervalScheduler struct {
	interval   time.Duration
	runAtStart bool
	mu         sync.Mutex
	stop       chan struct{}
	done       chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler; runAtStart fires the job once immediately.
func NewIntervalScheduler(interval time.Duration, runAtStart bool) *IntervalScheduler {
	return &IntervalScheduler{interval: interval, runAtStart: runAtStart}
}

// Start begins ticking in a background goroutine.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if s.interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		if s.runAtStart {
			job(time.Now())
		}
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine and waits for a running job to return.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
