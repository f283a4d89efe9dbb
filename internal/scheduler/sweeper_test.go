package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

type fakePruner struct {
	mu       sync.Mutex
	dangling map[string][]string
	sweeps   int
}

func (f *fakePruner) DanglingRefs() map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string][]string, len(f.dangling))
	for k, v := range f.dangling {
		out[k] = v
	}
	return out
}

func (f *fakePruner) PruneDanglingRefs(context.Context) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sweeps++
	n := 0
	for _, ids := range f.dangling {
		n += len(ids)
	}
	f.dangling = nil
	return n
}

func (f *fakePruner) add(projectID string, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dangling == nil {
		f.dangling = map[string][]string{}
	}
	f.dangling[projectID] = append(f.dangling[projectID], ids...)
}

func (f *fakePruner) sweepCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweeps
}

func TestRefSweeper_Sweep(t *testing.T) {
	log := logger.New("error", false)
	lib := &fakePruner{}
	lib.add("p1", "b1", "b2")
	lib.add("p2", "b3")

	s := NewRefSweeper(lib, log, time.Hour, nil)

	if removed := s.Sweep(context.Background()); removed != 3 {
		t.Errorf("Sweep() = %d, want 3", removed)
	}

	// Nothing dangling: the pruner is not called again.
	if removed := s.Sweep(context.Background()); removed != 0 {
		t.Errorf("second Sweep() = %d, want 0", removed)
	}
	if lib.sweepCount() != 1 {
		t.Errorf("PruneDanglingRefs called %d times, want 1", lib.sweepCount())
	}
}

func TestRefSweeper_ManualTrigger(t *testing.T) {
	lib := &fakePruner{}
	trigger := make(chan struct{}, 1)
	s := NewRefSweeper(lib, logger.Nop(), time.Hour, trigger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	lib.add("p1", "gone")
	trigger <- struct{}{}

	deadline := time.After(2 * time.Second)
	for lib.sweepCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("manual trigger did not run a sweep")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRefSweeper_DefaultInterval(t *testing.T) {
	s := NewRefSweeper(&fakePruner{}, logger.Nop(), 0, nil)
	if s.interval != DefaultSweepInterval {
		t.Errorf("interval = %v, want %v", s.interval, DefaultSweepInterval)
	}
}
