package presenter

import (
	"log/slog"
	"runtime/debug"
	"sync"
)

// Dispatcher queues work for the UI thread. Post is safe from any
// goroutine; Drain runs the queued funcs on the caller, which must be the
// Tk thread. The zero value is usable.
type Dispatcher struct {
	Logger *slog.Logger

	mu     sync.Mutex
	queue  []func()
	closed bool
}

// Post queues fn. It reports false once the dispatcher is closed.
func (d *Dispatcher) Post(fn func()) bool {
	if d == nil || fn == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.queue = append(d.queue, fn)
	return true
}

// Drain runs every func queued so far, in order. Funcs posted while
// draining run on the next call.
func (d *Dispatcher) Drain() int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	q := d.queue
	d.queue = nil
	d.mu.Unlock()
	for _, fn := range q {
		d.run(fn)
	}
	return len(q)
}

func (d *Dispatcher) run(fn func()) {
	defer func() {
		if r := recover(); r != nil && d.Logger != nil {
			d.Logger.Error("ui dispatch panic", "error", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Pending reports the queue length.
func (d *Dispatcher) Pending() int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Close drops queued work and rejects later posts.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.queue = nil
}
