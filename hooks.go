package lotmap

import (
	"sync"

	"github.com/homestead/lotmap/pkg/match"
	"github.com/homestead/lotmap/pkg/types"
)

// Hook function types for engine events.
type (
	// MarkersChangedHook is called when the merged marker set changes.
	MarkersChangedHook func(markers []types.MarkerView)

	// UnmatchedChangedHook is called when the unmatched resident list
	// changes.
	UnmatchedChangedHook func(unmatched []match.Unmatched)
)

// hooks manages event callbacks for engine state changes.
type hooks struct {
	mu          sync.RWMutex
	onMarkers   []MarkersChangedHook
	onUnmatched []UnmatchedChangedHook
}

// newHooks creates a new hooks instance.
func newHooks() *hooks {
	return &hooks{}
}

// onMarkersChanged registers a marker change callback.
func (h *hooks) onMarkersChanged(fn MarkersChangedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMarkers = append(h.onMarkers, fn)
}

// onUnmatchedChanged registers an unmatched change callback.
func (h *hooks) onUnmatchedChanged(fn UnmatchedChangedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onUnmatched = append(h.onUnmatched, fn)
}

// triggerMarkersChanged fires the marker change callbacks.
func (h *hooks) triggerMarkersChanged(markers []types.MarkerView) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onMarkers {
		hook(markers)
	}
}

// triggerUnmatchedChanged fires the unmatched change callbacks.
func (h *hooks) triggerUnmatchedChanged(unmatched []match.Unmatched) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onUnmatched {
		hook(unmatched)
	}
}
