package presenter

import (
	"errors"
	"sync"
	"time"

	"github.com/soocke/image-picker-go/domain/picker"
)

// StateView sets the state label in the view.
type StateView interface{ SetStateLabel(string) }

// StatePresenter receives coordinator transitions and pending state
// changes, and updates the view.
type StatePresenter struct {
	view   StateView
	latest string // last reflected label

	mu      sync.Mutex
	pending []picker.Transition
}

func NewStatePresenter(view StateView) *StatePresenter {
	return &StatePresenter{view: view}
}

// OnTransition queues a transition from the coordinator listener. It runs
// on the coordinator goroutine.
//
// The latest queued transition will be reflected on the next Tick.
func (p *StatePresenter) OnTransition(t picker.Transition) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.pending = append(p.pending, t)
	p.mu.Unlock()
}

// Tick reflects the most recent queued transition. A session that ended
// with a cause keeps that cause visible once it returns to idle.
func (p *StatePresenter) Tick(now time.Time) {
	if p == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	q := p.pending
	p.pending = nil
	p.mu.Unlock()
	if len(q) == 0 {
		return
	}
	var cause error
	for _, t := range q {
		if t.Cause != nil {
			cause = t.Cause
		}
	}
	last := q[len(q)-1]
	label := "State: " + last.To.String()
	if last.To == picker.StateIdle && cause != nil {
		label += " (" + causeLabel(cause) + ")"
	}
	if label != p.latest {
		p.latest = label
		p.view.SetStateLabel(label)
	}
}

func causeLabel(err error) string {
	switch {
	case errors.Is(err, picker.ErrPermissionDenied):
		return "permission denied"
	case errors.Is(err, picker.ErrNoCapableDelegate):
		return "no capable source"
	case errors.Is(err, picker.ErrDelegateFailure):
		return "source failed"
	case errors.Is(err, picker.ErrAborted):
		return "aborted"
	case errors.Is(err, picker.ErrUserCancelled):
		return "cancelled"
	default:
		return err.Error()
	}
}
