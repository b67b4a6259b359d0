package presenter

import "time"

// Loop aggregates feature presenters and drives periodic updates.
//
// It drains the dispatcher, calls Tick on the sub-presenters and invokes a
// scheduler callback. The zero value is usable (methods are nil-safe).
type Loop struct {
	UI       *Dispatcher
	State    *StatePresenter
	Stats    *StatsPresenter
	Schedule func()
}

func NewLoop(ui *Dispatcher, state *StatePresenter, stats *StatsPresenter, schedule func()) *Loop {
	return &Loop{UI: ui, State: state, Stats: stats, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	l.UI.Drain()
	l.State.Tick(now)
	l.Stats.Tick(now)
	if l.Schedule != nil {
		l.Schedule()
	}
}
