package presenter

import (
	"time"

	"github.com/soocke/image-picker-go/ui/model"
)

// BusyModel reports whether a pick is running.
type BusyModel interface{ Busy() bool }

// StatsView displays pick counters and durations.
type StatsView interface {
	SetStats(s model.PickStats)
}

// StatsPresenter pushes pick stats from the model to the view.
type StatsPresenter struct {
	stats *model.StatsModel
	busy  BusyModel
	view  StatsView
	last  model.PickStats
}

func NewStatsPresenter(stats *model.StatsModel, busy BusyModel, view StatsView) *StatsPresenter {
	return &StatsPresenter{stats: stats, busy: busy, view: view}
}

// Tick advances the session clock and refreshes the view on change.
func (p *StatsPresenter) Tick(now time.Time) {
	if p == nil || p.stats == nil || p.busy == nil || p.view == nil {
		return
	}
	p.stats.OnTick(p.busy.Busy(), now)
	s := p.stats.Snapshot()
	if s == p.last {
		return
	}
	p.last = s
	p.view.SetStats(s)
}
