package usersearch

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultWait is the debounce window applied to search input.
const DefaultWait = 1000 * time.Millisecond

// Debouncer fires on both edges of a burst. The first call after a quiet
// period of at least the window fires at once; every call, fired or not,
// restarts the window. The last call dropped inside a window fires once the
// window closes.
type Debouncer struct {
	clock clock.Clock
	wait  time.Duration

	mu         sync.Mutex
	last       time.Time
	seen       bool
	pending    func()
	timer      *clock.Timer
	generation uint64
}

// NewDebouncer builds a debouncer over c. A nil clock uses the wall clock
// and a non-positive wait uses DefaultWait.
func NewDebouncer(c clock.Clock, wait time.Duration) *Debouncer {
	if c == nil {
		c = clock.New()
	}
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Debouncer{clock: c, wait: wait}
}

// Schedule records a call and reports whether it fires now. A dropped call
// arms trailing to run when the window closes, replacing any earlier
// trailing call. The caller runs the leading call itself.
func (d *Debouncer) Schedule(trailing func()) bool {
	now := d.clock.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	fire := !d.seen || now.Sub(d.last) >= d.wait
	d.last = now
	d.seen = true

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
	if fire {
		d.pending = nil
		return true
	}

	d.pending = trailing
	generation := d.generation
	d.timer = d.clock.AfterFunc(d.wait, func() { d.flush(generation) })
	return false
}

// Do runs fn now when the call fires and otherwise defers it to the end of
// the window.
func (d *Debouncer) Do(fn func()) bool {
	if !d.Schedule(fn) {
		return false
	}
	fn()
	return true
}

// Cancel drops any pending trailing call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.generation++
}

func (d *Debouncer) flush(generation uint64) {
	d.mu.Lock()
	if generation != d.generation {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}
