// Package debounce provides a cancellable quiet-period timer.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuiet is the quiet period used for audits.
const DefaultQuiet = 2 * time.Second

// Timer runs fn once after Trigger has not been called for the quiet
// period. Each Trigger reschedules the single pending run.
type Timer struct {
	quiet time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
}

func New(quiet time.Duration, fn func()) *Timer {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Timer{quiet: quiet, fn: fn}
}

// Trigger (re)starts the quiet period.
func (t *Timer) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.pending = true
	t.timer = time.AfterFunc(t.quiet, func() { t.fire(gen) })
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	// A newer Trigger, Stop or Flush superseded this run.
	if gen != t.gen || !t.pending {
		t.mu.Unlock()
		return
	}
	t.pending = false
	t.mu.Unlock()
	t.fn()
}

// Stop drops the pending run, if any.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	t.pending = false
}

// Flush runs a pending call now. It reports whether one ran.
func (t *Timer) Flush() bool {
	t.mu.Lock()
	if !t.pending {
		t.mu.Unlock()
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	t.pending = false
	t.mu.Unlock()
	t.fn()
	return true
}

// Pending reports whether a run is scheduled.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}
