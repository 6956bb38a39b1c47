package scheduler

import (
	"sync"
	"time"
)

// Scheduler issues delayed callbacks keyed by game ID plus fixed-interval
// background loops. At most one delayed task is pending per key;
// scheduling again replaces the previous task. A fired or cancelled task
// leaves no trace, so cancelling after a game is deleted is a no-op.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopCh  chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

// New creates an idle scheduler.
func New() *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
		stopCh: make(chan struct{}),
	}
}

// After schedules fn to run once after delay, keyed by id. A previously
// pending task for the same key is cancelled first. The callback runs on
// its own goroutine.
func (s *Scheduler) After(id string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if timer, exists := s.timers[id]; exists {
		timer.Stop()
	}

	// Stop on an already-firing timer returns false and its callback still
	// runs; the identity check keeps such a stale callback from touching
	// the replacement's entry or invoking its fn.
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		current := s.timers[id] == timer
		if current {
			delete(s.timers, id)
		}
		stopped := s.stopped
		s.mu.Unlock()

		if current && !stopped {
			fn()
		}
	})
	s.timers[id] = timer
}

// Cancel drops the pending task for id, if any. Cancelling an unknown or
// already-fired key is a benign no-op.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, exists := s.timers[id]; exists {
		timer.Stop()
		delete(s.timers, id)
	}
}

// Pending reports whether a task is still scheduled for id.
func (s *Scheduler) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.timers[id]
	return exists
}

// Every runs fn on a fixed interval until Stop is called.
func (s *Scheduler) Every(interval time.Duration, fn func()) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fn()
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop cancels all pending tasks and interval loops and waits for the
// loops to exit. The scheduler cannot be reused afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
}
