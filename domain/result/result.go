package result

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrAlreadyDelivered = errors.New("result: outcome already delivered")
	ErrAlreadyDismissed = errors.New("result: dismiss already notified")
	ErrListenerPanic    = errors.New("result: listener panicked")
)

// Outcome is the terminal result of one pick: a delivered value or a
// cancellation. The zero value is Cancelled.
type Outcome[T any] struct {
	value     T
	delivered bool
}

// Delivered wraps a picked value.
func Delivered[T any](v T) Outcome[T] { return Outcome[T]{value: v, delivered: true} }

// Cancelled is the outcome when no value was picked, whatever the cause.
func Cancelled[T any]() Outcome[T] { return Outcome[T]{} }

// Value returns the payload and whether one was delivered.
func (o Outcome[T]) Value() (T, bool) { return o.value, o.delivered }

// IsCancelled reports whether the outcome carries no payload.
func (o Outcome[T]) IsCancelled() bool { return !o.delivered }

func (o Outcome[T]) String() string {
	if o.delivered {
		return "delivered"
	}
	return "cancelled"
}

// Listener receives the outcome of a session. It is called at most once.
type Listener[T any] func(Outcome[T])

// DismissListener is notified when the presentation surface of a session
// closes. It is called at most once and independently of Listener.
type DismissListener func()

// Future is the caller's read-only view of a Channel.
type Future[T any] interface {
	// Done is closed once the outcome has been delivered.
	Done() <-chan struct{}
	// Dismissed is closed once the presentation surface has closed.
	Dismissed() <-chan struct{}
	// Outcome returns the delivered outcome, ok is false before delivery.
	Outcome() (o Outcome[T], ok bool)
	// Wait blocks until the outcome is delivered or ctx is done.
	Wait(ctx context.Context) (Outcome[T], error)
}

// Channel is a single-use result channel. The outcome and the dismiss
// notification each settle exactly once; the closed done channels make
// a second settle impossible to observe. The zero value is not usable,
// use New.
type Channel[T any] struct {
	mu        sync.Mutex
	outcome   Outcome[T]
	settled   bool
	dismissed bool
	listeners []Listener[T]
	onDismiss []DismissListener

	done       chan struct{}
	dismissedC chan struct{}
}

// New returns an unsettled channel.
func New[T any]() *Channel[T] {
	return &Channel[T]{done: make(chan struct{}), dismissedC: make(chan struct{})}
}

// OnResult registers l for the outcome. Listeners registered after
// delivery are dropped and ErrAlreadyDelivered is returned.
func (c *Channel[T]) OnResult(l Listener[T]) error {
	if l == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settled {
		return ErrAlreadyDelivered
	}
	c.listeners = append(c.listeners, l)
	return nil
}

// OnDismiss registers l for the dismiss notification.
func (c *Channel[T]) OnDismiss(l DismissListener) error {
	if l == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dismissed {
		return ErrAlreadyDismissed
	}
	c.onDismiss = append(c.onDismiss, l)
	return nil
}

// Deliver settles the channel with o and fans out to the registered
// listeners. A second call returns ErrAlreadyDelivered and calls nobody.
// A panicking listener does not stop the fan-out; its panic is returned
// wrapped in ErrListenerPanic.
func (c *Channel[T]) Deliver(o Outcome[T]) error {
	c.mu.Lock()
	if c.settled {
		c.mu.Unlock()
		return ErrAlreadyDelivered
	}
	c.settled = true
	c.outcome = o
	ls := c.listeners
	c.listeners = nil
	close(c.done)
	c.mu.Unlock()

	var errs []error
	for _, l := range ls {
		errs = append(errs, guard(func() { l(o) }))
	}
	return errors.Join(errs...)
}

// NotifyDismiss marks the presentation surface closed and fans out to the
// dismiss listeners. A second call returns ErrAlreadyDismissed. Listener
// panics are handled as in Deliver.
func (c *Channel[T]) NotifyDismiss() error {
	c.mu.Lock()
	if c.dismissed {
		c.mu.Unlock()
		return ErrAlreadyDismissed
	}
	c.dismissed = true
	ls := c.onDismiss
	c.onDismiss = nil
	close(c.dismissedC)
	c.mu.Unlock()

	var errs []error
	for _, l := range ls {
		errs = append(errs, guard(l))
	}
	return errors.Join(errs...)
}

func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, r)
		}
	}()
	fn()
	return nil
}

// Delivered reports whether the outcome has been settled.
func (c *Channel[T]) Delivered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

func (c *Channel[T]) Done() <-chan struct{}      { return c.done }
func (c *Channel[T]) Dismissed() <-chan struct{} { return c.dismissedC }

func (c *Channel[T]) Outcome() (Outcome[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome, c.settled
}

func (c *Channel[T]) Wait(ctx context.Context) (Outcome[T], error) {
	select {
	case <-c.done:
		o, _ := c.Outcome()
		return o, nil
	case <-ctx.Done():
		return Outcome[T]{}, ctx.Err()
	}
}

var _ Future[struct{}] = (*Channel[struct{}])(nil)
