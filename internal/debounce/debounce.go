// Package debounce delays a call until its trigger has been quiet for a
// fixed window. It backs keystroke-driven search.
package debounce

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

// DefaultWait is the quiescence window used for live search.
const DefaultWait = 300 * time.Millisecond

// Debouncer runs only the last function passed to Trigger, once no further
// Trigger happened for the wait window.
type Debouncer struct {
	call func(func())

	mu      sync.Mutex
	pending func()
	stopped bool
}

// New returns a Debouncer. wait <= 0 disables debouncing: Trigger runs fn
// synchronously.
func New(wait time.Duration) *Debouncer {
	d := &Debouncer{}
	if wait > 0 {
		d.call = debounce.New(wait)
	}
	return d
}

func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.call == nil {
		d.mu.Unlock()
		fn()
		return
	}
	d.pending = fn
	d.mu.Unlock()

	d.call(d.fire)
}

// Flush runs the pending call now, on the calling goroutine. The timer
// firing later finds nothing to run.
func (d *Debouncer) Flush() {
	d.fire()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	fn := d.pending
	d.pending = nil
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Stop drops any pending call and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.pending = nil
	d.mu.Unlock()
}
