package telemetry

import (
	"sort"
	"sync"
	"time"
)

// HealthTracker watches registered background loops and reports degraded
// status when a loop misses two consecutive expected beats.
type HealthTracker struct {
	mu    sync.Mutex
	loops map[string]*loopState
	now   func() time.Time
}

type loopState struct {
	interval time.Duration
	lastBeat time.Time
}

// Heartbeat is the handle a background loop beats on each iteration.
type Heartbeat struct {
	tracker *HealthTracker
	name    string
}

type HealthReport struct {
	Status string   `json:"status"`
	Stale  []string `json:"stale,omitempty"`
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		loops: make(map[string]*loopState),
		now:   time.Now,
	}
}

// Register adds a loop expected to beat at least once per interval.
func (t *HealthTracker) Register(name string, interval time.Duration) *Heartbeat {
	t.mu.Lock()
	t.loops[name] = &loopState{interval: interval, lastBeat: t.now()}
	t.mu.Unlock()
	return &Heartbeat{tracker: t, name: name}
}

func (b *Heartbeat) Beat() {
	if b == nil || b.tracker == nil {
		return
	}
	b.tracker.mu.Lock()
	if state, ok := b.tracker.loops[b.name]; ok {
		state.lastBeat = b.tracker.now()
	}
	b.tracker.mu.Unlock()
}

// Report returns "ok" while every registered loop has beaten within twice its
// interval, "degraded" otherwise.
func (t *HealthTracker) Report() HealthReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	var stale []string
	for name, state := range t.loops {
		if state.interval <= 0 {
			continue
		}
		if now.Sub(state.lastBeat) > 2*state.interval {
			stale = append(stale, name)
		}
	}
	if len(stale) == 0 {
		return HealthReport{Status: "ok"}
	}
	sort.Strings(stale)
	return HealthReport{Status: "degraded", Stale: stale}
}
