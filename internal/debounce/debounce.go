// Package debounce provides a timer-based coalescing wrapper with explicit
// cancellation. A pending slot holds the latest call; a new call replaces
// the slot and reschedules, so only the last call within the quiet window
// executes. Cancel clears the slot and unschedules.
package debounce

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Func coalesces calls into at most one execution per quiet window.
type Func struct {
	mu      sync.Mutex
	clk     clock.Clock
	quiet   time.Duration
	timer   *clock.Timer
	pending func()
}

// New creates a debouncer with the given quiet window.
func New(quiet time.Duration) *Func {
	return NewWithClock(quiet, clock.New())
}

// NewWithClock creates a debouncer on an injected clock. Tests use a mock
// clock to step through the quiet window deterministically.
func NewWithClock(quiet time.Duration, clk clock.Clock) *Func {
	return &Func{clk: clk, quiet: quiet}
}

// Call schedules fn to run after the quiet window, replacing any pending
// call. fn runs on the timer goroutine.
func (d *Func) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = fn
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clk.AfterFunc(d.quiet, d.fire)
}

func (d *Func) fire() {
	d.mu.Lock()
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Cancel drops the pending call, if any.
func (d *Func) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
