package model

import (
	"sync"
	"time"

	"github.com/soocke/image-picker-go/domain/provider"
)

// PickStats is a point-in-time copy of StatsModel.
type PickStats struct {
	Delivered int
	Cancelled int
	Library   int // delivered through library-pick
	Camera    int // delivered through camera-capture
	Session   time.Duration
	Total     time.Duration
	LastPick  time.Time
}

// StatsModel counts outcomes and tracks time spent in pick sessions.
// The zero value is ready to use.
type StatsModel struct {
	mu          sync.Mutex
	active      bool
	start       time.Time
	current     time.Duration
	accumulated time.Duration
	delivered   int
	cancelled   int
	byPath      map[provider.Path]int
	lastPick    time.Time
}

func NewStatsModel() *StatsModel { return &StatsModel{} }

// OnTick advances the session clock using the current busy state.
// Call periodically (for example, from a presenter tick).
func (m *StatsModel) OnTick(picking bool, now time.Time) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if picking {
		if !m.active {
			m.active = true
			m.start = now
		}
		m.current = now.Sub(m.start)
	} else if m.active {
		m.current = now.Sub(m.start)
		m.accumulated += m.current
		m.active = false
	}
}

// Record counts one outcome. path is ignored for cancellations.
func (m *StatsModel) Record(delivered bool, path provider.Path, now time.Time) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !delivered {
		m.cancelled++
		return
	}
	m.delivered++
	if m.byPath == nil {
		m.byPath = make(map[provider.Path]int)
	}
	m.byPath[path]++
	m.lastPick = now
}

// Snapshot returns the counters. Total includes the ongoing session.
func (m *StatsModel) Snapshot() PickStats {
	if m == nil {
		return PickStats{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := PickStats{
		Delivered: m.delivered,
		Cancelled: m.cancelled,
		Library:   m.byPath[provider.LibraryPick],
		Camera:    m.byPath[provider.CameraCapture],
		Session:   m.current,
		Total:     m.accumulated,
		LastPick:  m.lastPick,
	}
	if m.active {
		s.Total += m.current
	}
	return s
}
