// Package cooldown provides an in-memory per-key rate guard for ticket
// creation. A Tracker is constructed once at startup and shared by
// reference; there is no package-level state.
package cooldown

import (
	"sync"
	"time"
)

// Tracker records the last creation attempt per key and answers how long a
// caller still has to wait.
type Tracker struct {
	// mu guards entries and sweep state.
	mu sync.Mutex

	// entries maps a key to the time of its last allowed attempt.
	entries map[string]time.Time

	// stop ends the sweep goroutine; done is closed when it has exited.
	stop chan struct{}
	done chan struct{}

	// now is the clock, swappable in tests.
	now func() time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Enforce returns the remaining wait for the key, or zero when the attempt
// is allowed. An allowed attempt records a fresh timestamp; a denied one
// leaves the existing timestamp untouched.
func (t *Tracker) Enforce(key string, window time.Duration) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.entries[key]; ok {
		if remaining := window - now.Sub(last); remaining > 0 {
			return remaining
		}
	}
	t.entries[key] = now
	return 0
}

// StartSweep starts the periodic sweep that drops entries older than twice
// the window, bounding memory. The interval is independent of the window.
// Starting an already-started tracker is a no-op.
func (t *Tracker) StartSweep(interval, window time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	t.stop = make(chan struct{})
	t.done = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.sweep(window)
			case <-stop:
				return
			}
		}
	}(t.stop, t.done)
}

// StopSweep stops the sweep goroutine and waits for it to exit. Stopping a
// never-started or already-stopped tracker is a no-op.
func (t *Tracker) StopSweep() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (t *Tracker) sweep(window time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-2 * window)
	for key, last := range t.entries {
		if last.Before(cutoff) {
			delete(t.entries, key)
		}
	}
}

// size is the current number of tracked entries.
func (t *Tracker) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
