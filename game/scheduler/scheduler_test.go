package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestAfter(t *testing.T) {
	t.Run("fires once after the delay", func(t *testing.T) {
		s := New()
		defer s.Stop()

		fired := make(chan struct{})
		s.After("g1", 10*time.Millisecond, func() { close(fired) })

		if !s.Pending("g1") {
			t.Error("task should be pending before firing")
		}

		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatal("task never fired")
		}

		// The fired key leaves no trace.
		time.Sleep(10 * time.Millisecond)
		if s.Pending("g1") {
			t.Error("task still pending after firing")
		}
	})

	t.Run("rescheduling replaces the pending task", func(t *testing.T) {
		s := New()
		defer s.Stop()

		var first, second atomic.Int32
		s.After("g1", 20*time.Millisecond, func() { first.Add(1) })
		s.After("g1", 20*time.Millisecond, func() { second.Add(1) })

		time.Sleep(100 * time.Millisecond)
		if got := first.Load(); got != 0 {
			t.Errorf("replaced task fired %d times, want 0", got)
		}
		if got := second.Load(); got != 1 {
			t.Errorf("replacement task fired %d times, want 1", got)
		}
	})

	t.Run("replacing a firing task keeps the replacement cancellable", func(t *testing.T) {
		s := New()
		defer s.Stop()

		// A zero-delay task fires while its replacement is being armed.
		// The late callback must not consume the replacement's key, or
		// Cancel would miss it and the replacement would still fire.
		var stray atomic.Int32
		for i := 0; i < 200; i++ {
			s.After("g1", 0, func() {})
			s.After("g1", 20*time.Millisecond, func() { stray.Add(1) })
			s.Cancel("g1")
		}

		time.Sleep(100 * time.Millisecond)
		if got := stray.Load(); got != 0 {
			t.Errorf("cancelled replacement fired %d times, want 0", got)
		}
		if s.Pending("g1") {
			t.Error("task still pending after cancel")
		}
	})
}

func TestCancel(t *testing.T) {
	s := New()
	defer s.Stop()

	var fired atomic.Int32
	s.After("g1", 20*time.Millisecond, func() { fired.Add(1) })
	s.Cancel("g1")

	if s.Pending("g1") {
		t.Error("cancelled task still pending")
	}

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("cancelled task fired %d times, want 0", got)
	}

	// Cancelling an unknown key is a no-op.
	s.Cancel("never-scheduled")
	s.Cancel("g1")
}

func TestEvery(t *testing.T) {
	s := New()

	var ticks atomic.Int32
	s.Every(10*time.Millisecond, func() { ticks.Add(1) })

	time.Sleep(100 * time.Millisecond)
	s.Stop()

	got := ticks.Load()
	if got < 2 {
		t.Errorf("loop ticked %d times in 100ms, want at least 2", got)
	}

	// No more ticks after Stop.
	time.Sleep(50 * time.Millisecond)
	if after := ticks.Load(); after != got {
		t.Errorf("loop ticked after Stop (%d -> %d)", got, after)
	}
}

func TestStop(t *testing.T) {
	s := New()

	var fired atomic.Int32
	s.After("g1", 20*time.Millisecond, func() { fired.Add(1) })
	s.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("task fired %d times after Stop, want 0", got)
	}

	// A stopped scheduler silently ignores new work.
	s.After("g2", time.Millisecond, func() { fired.Add(1) })
	s.Every(time.Millisecond, func() { fired.Add(1) })
	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("stopped scheduler ran %d tasks, want 0", got)
	}

	// Stop is idempotent.
	s.Stop()
}
