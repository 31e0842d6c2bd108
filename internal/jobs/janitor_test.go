package jobs

import (
	"sync"
	"testing"
	"time"
)

type fakePurger struct {
	mu    sync.Mutex
	calls []time.Time
	n     int
}

func (f *fakePurger) PurgeExpired(now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.n
}

func TestRunOnceSumsTargets(t *testing.T) {
	t.Parallel()

	a := &fakePurger{n: 2}
	b := &fakePurger{n: 3}
	j := NewJanitor("", a, b)
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return fixed }

	if got := j.RunOnce(); got != 5 {
		t.Fatalf("RunOnce = %d, want 5", got)
	}
	if len(a.calls) != 1 || !a.calls[0].Equal(fixed) || len(b.calls) != 1 {
		t.Fatalf("targets not called with the same clock: %v %v", a.calls, b.calls)
	}
	if j.schedule != DefaultPurgeSchedule {
		t.Fatalf("schedule = %q", j.schedule)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	j := NewJanitor("every now and then")
	if err := j.Start(); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func TestStartRunsOnSchedule(t *testing.T) {
	t.Parallel()

	p := &fakePurger{}
	j := NewJanitor("@every 1s", p)
	if err := j.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer j.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		n := len(p.calls)
		p.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("janitor never ran")
}
