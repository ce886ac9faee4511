// Package view applies search and status predicates over the merged marker
// set for presentation. Filters are pure and cheap enough to run on every
// keystroke.
package view

import (
	"strings"

	"github.com/homestead/lotmap/pkg/types"
)

// Status is the occupancy/availability predicate for a marker query.
type Status string

// Status predicates.
const (
	StatusAll         Status = "all"
	StatusUnoccupied  Status = "unoccupied"
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
)

// Filter holds the search query and status predicate applied to markers.
type Filter struct {
	// Query is matched case-insensitively as a substring against the
	// resident's full name (when one occupies the slot) and the raw
	// block/lot text of the marker.
	Query string

	// Status filters by occupancy state. Zero value means StatusAll.
	Status Status
}

// Apply returns the markers that satisfy the filter, preserving order.
func (f Filter) Apply(markers []types.MarkerView) []types.MarkerView {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	var results []types.MarkerView
	for _, marker := range markers {
		if f.matchesStatus(marker) && matchesQuery(marker, query) {
			results = append(results, marker)
		}
	}
	return results
}

// Apply filters markers by query text and status in one call.
func Apply(markers []types.MarkerView, query string, status Status) []types.MarkerView {
	return Filter{Query: query, Status: status}.Apply(markers)
}

// matchesStatus checks the marker against the status predicate. A slot with
// only a matched resident is never "unoccupied": without a pin saying
// otherwise it is at least resident-occupied.
func (f Filter) matchesStatus(marker types.MarkerView) bool {
	switch f.Status {
	case StatusUnoccupied:
		return marker.Pin != nil && !marker.Pin.IsOccupied
	case StatusAvailable:
		return availability(marker) == types.Available
	case StatusUnavailable:
		return availability(marker) == types.Unavailable
	default:
		return true
	}
}

// availability reads from the pin's flags when a pin exists, otherwise from
// the resident's own status. Slots with neither have no availability.
func availability(marker types.MarkerView) types.AvailabilityStatus {
	if marker.Pin != nil {
		if marker.Pin.IsAvailable {
			return types.Available
		}
		return types.Unavailable
	}
	if marker.Resident != nil {
		return marker.Resident.Availability
	}
	return ""
}

// matchesQuery does case-insensitive substring matching against the
// resident name and the raw block/lot labels.
func matchesQuery(marker types.MarkerView, query string) bool {
	if query == "" {
		return true
	}

	if marker.Resident != nil && contains(marker.Resident.FullName, query) {
		return true
	}
	if marker.Pin != nil && (contains(marker.Pin.Block, query) || contains(marker.Pin.Lot, query)) {
		return true
	}
	return contains(marker.Slot.Block, query) || contains(marker.Slot.Lot, query)
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
