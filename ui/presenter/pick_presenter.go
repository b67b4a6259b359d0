package presenter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/soocke/image-picker-go/domain/photo"
	"github.com/soocke/image-picker-go/domain/picker"
	"github.com/soocke/image-picker-go/domain/provider"
	"github.com/soocke/image-picker-go/domain/result"
)

// PickModel tracks the busy flag and the last photo.
type PickModel interface {
	Busy() bool
	SetBusy(bool)
	SetLast(*photo.Photo)
}

// Picker narrows what the presenter needs from the coordinator.
type Picker interface {
	Start(ctx context.Context) (result.Future[*photo.Photo], error)
	Dismiss()
}

// OutcomeRecorder counts outcomes.
type OutcomeRecorder interface {
	Record(delivered bool, path provider.Path, now time.Time)
}

// PickView updates UI elements affected by a pick.
type PickView interface {
	SetBusy(bool)
	ShowPhoto(*photo.Photo)
	SetStatus(string)
	ConfigEditable(bool)
}

// PickPresenter owns the Pick and Cancel actions and reflects outcomes.
type PickPresenter struct {
	logger *slog.Logger
	model  PickModel
	picker Picker
	stats  OutcomeRecorder
	view   PickView
	ui     *Dispatcher
	onDone func(*photo.Photo)
}

func NewPickPresenter(logger *slog.Logger, model PickModel, picker Picker, stats OutcomeRecorder, view PickView, ui *Dispatcher) *PickPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PickPresenter{logger: logger, model: model, picker: picker, stats: stats, view: view, ui: ui}
}

// OnFinished installs fn, called on the UI thread once per session with the
// delivered photo, or nil when the session was cancelled.
func (p *PickPresenter) OnFinished(fn func(*photo.Photo)) {
	if p != nil {
		p.onDone = fn
	}
}

// SetPicker swaps the coordinator, e.g. after the provider mode changed.
// Call on the UI thread while idle.
func (p *PickPresenter) SetPicker(pk Picker) {
	if p != nil {
		p.picker = pk
	}
}

// Pick starts a session unless one is running. Idempotent while busy.
func (p *PickPresenter) Pick() {
	if p == nil || p.model == nil || p.picker == nil || p.view == nil {
		return
	}
	if p.model.Busy() {
		return
	}
	if _, err := p.picker.Start(context.Background()); err != nil {
		if errors.Is(err, picker.ErrSessionActive) {
			p.view.SetStatus("A pick is already running")
			return
		}
		p.logger.Error("pick start failed", "error", err)
		p.view.SetStatus("Picker unavailable")
		return
	}
	p.model.SetBusy(true)
	p.view.SetBusy(true)
	p.view.ConfigEditable(false)
	p.view.SetStatus("Picking...")
}

// Cancel dismisses the running session. Idempotent.
func (p *PickPresenter) Cancel() {
	if p == nil || p.model == nil || p.picker == nil {
		return
	}
	if !p.model.Busy() {
		return
	}
	p.picker.Dismiss()
}

// OnOutcome is the coordinator result listener. It may run on any goroutine.
func (p *PickPresenter) OnOutcome(o result.Outcome[*photo.Photo]) {
	if p == nil {
		return
	}
	now := time.Now()
	ph, ok := o.Value()
	if ok && ph == nil {
		ok = false
	}
	if p.stats != nil {
		var path provider.Path
		if ok {
			path = ph.Source
		}
		p.stats.Record(ok, path, now)
	}
	p.ui.Post(func() {
		if ok {
			p.model.SetLast(ph)
			p.view.ShowPhoto(ph)
			p.view.SetStatus("Picked " + ph.Name())
		} else {
			ph = nil
			p.view.SetStatus("Cancelled")
		}
		if p.onDone != nil {
			p.onDone(ph)
		}
	})
}

// OnDismiss is the coordinator dismiss listener. It may run on any goroutine.
func (p *PickPresenter) OnDismiss() {
	if p == nil {
		return
	}
	p.ui.Post(func() {
		p.model.SetBusy(false)
		p.view.SetBusy(false)
		p.view.ConfigEditable(true)
	})
}
