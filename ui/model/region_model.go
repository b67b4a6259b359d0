package model

import (
	"image"
	"sync"
)

// RegionModel holds the camera capture region in screen coordinates. The
// zero value means full screen and is usable. Reads come from the capture
// goroutine, writes from the UI thread.
type RegionModel struct {
	mu     sync.RWMutex
	region image.Rectangle
}

func NewRegionModel(initial *image.Rectangle) *RegionModel {
	m := &RegionModel{}
	m.Set(initial)
	return m
}

// Set replaces the region. Nil or empty clears it.
func (m *RegionModel) Set(r *image.Rectangle) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r == nil {
		m.region = image.Rectangle{}
		return
	}
	n := r.Canon()
	if n.Empty() {
		n = image.Rectangle{}
	}
	m.region = n
}

// Region returns the current region, nil for full screen.
func (m *RegionModel) Region() *image.Rectangle {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.region.Empty() {
		return nil
	}
	r := m.region
	return &r
}
