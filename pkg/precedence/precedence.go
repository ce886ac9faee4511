// Package precedence decides, per location slot, whether an administrator
// pin or the matched resident drives the rendered marker. A pin always wins
// the visual marker for its slot; the resident's own availability only shows
// through when no pin claims the slot's normalized key.
package precedence

import (
	"github.com/homestead/lotmap/pkg/address"
	"github.com/homestead/lotmap/pkg/match"
	"github.com/homestead/lotmap/pkg/types"
)

// Index maps pins by their normalized (block, lot) key. The pin collection
// enforces key uniqueness, so a plain map holds at most one pin per key.
type Index map[types.Key]types.Pin

// IndexPins builds a pin index keyed by normalized (block, lot). When the
// snapshot carries duplicates anyway (a partially-resolved conflict), the
// first pin by input order keeps the key.
func IndexPins(pins []types.Pin) Index {
	idx := make(Index, len(pins))
	for _, pin := range pins {
		key := address.PinKey(pin)
		if _, taken := idx[key]; !taken {
			idx[key] = pin
		}
	}
	return idx
}

// ResolveSlot produces the merged marker view for one slot. The pin, when
// present for the slot's key, supplies the rendered state regardless of any
// matched resident; the resident is kept on the view as display metadata.
func ResolveSlot(slot types.LocationSlot, resident *types.Resident, pins Index) types.MarkerView {
	view := types.MarkerView{Slot: slot, Resident: resident, State: types.StateUnassigned}

	if pin, ok := pins[address.SlotKey(slot)]; ok {
		view.Pin = &pin
		view.State = pinState(pin)
		return view
	}

	if resident != nil {
		view.State = types.StateUnavailable
		if resident.Availability == types.Available {
			view.State = types.StateAvailable
		}
	}

	return view
}

// Resolve merges a matching pass and a pin snapshot into the full marker
// set, one view per slot, in slot order.
func Resolve(slots []types.LocationSlot, assignment *match.Assignment, pins []types.Pin) []types.MarkerView {
	idx := IndexPins(pins)
	views := make([]types.MarkerView, 0, len(slots))

	for _, slot := range slots {
		var resident *types.Resident
		if r, ok := assignment.ResidentFor(slot.ID); ok {
			matched := r
			resident = &matched
		}
		views = append(views, ResolveSlot(slot, resident, idx))
	}

	return views
}

// pinState colors a pin marker from its own flags.
func pinState(pin types.Pin) types.MarkerState {
	switch {
	case !pin.IsOccupied:
		return types.StateUnoccupied
	case pin.IsAvailable:
		return types.StateAvailable
	default:
		return types.StateUnavailable
	}
}
