package model

import (
	"sync"
	"sync/atomic"

	"github.com/soocke/image-picker-go/domain/photo"
)

// PickModel tracks whether a pick is in flight and the last delivered photo.
// The zero value is idle and usable. Safe for concurrent use because
// coordinator callbacks and presenter ticks may race.
type PickModel struct {
	busy atomic.Bool

	mu   sync.Mutex
	last *photo.Photo
}

// Busy reports whether a pick session is running.
func (m *PickModel) Busy() bool {
	if m == nil {
		return false
	}
	return m.busy.Load()
}

// SetBusy stores the busy flag.
func (m *PickModel) SetBusy(b bool) {
	if m == nil {
		return
	}
	m.busy.Store(b)
}

// SetLast records the most recent delivered photo.
func (m *PickModel) SetLast(p *photo.Photo) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.last = p
	m.mu.Unlock()
}

// Last returns the most recent delivered photo, or nil.
func (m *PickModel) Last() *photo.Photo {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
