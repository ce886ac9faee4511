// Package match assigns residents to location slots using tiered matching.
// Tiers run in order per resident and stop at the first success: exact
// (block+lot), fuzzy (a safety net kept distinct from exact for future
// refinement), then a lot-only fallback that tolerates block-labeling drift.
// Residents that survive every tier unmatched are reported, never dropped.
package match

import (
	"github.com/homestead/lotmap/pkg/address"
	"github.com/homestead/lotmap/pkg/logging"
	"github.com/homestead/lotmap/pkg/types"
)

// Tier identifies which matching tier produced an assignment.
type Tier string

// Matching tiers.
const (
	TierExact   Tier = "exact"
	TierFuzzy   Tier = "fuzzy"
	TierLotOnly Tier = "lot_only"
)

// Reason explains why a resident ended up unmatched.
type Reason string

// Unmatched reasons.
const (
	ReasonMissingBlock Reason = "missing_block"
	ReasonMissingLot   Reason = "missing_lot"
	ReasonNoSlot       Reason = "no_matching_slot"
)

// Unmatched is a resident that no tier could place, with the reason.
// Unmatched residents stay in the underlying dataset; they are only absent
// from the map view.
type Unmatched struct {
	Resident types.Resident
	Reason   Reason
}

// Assignment is the result of one matching pass: at most one resident per
// slot, the tier that placed each, and the diagnostic unmatched list.
type Assignment struct {
	BySlot    map[types.SlotID]types.Resident
	Tiers     map[types.SlotID]Tier
	Unmatched []Unmatched
}

// ResidentFor returns the resident matched to a slot, if any.
func (a *Assignment) ResidentFor(id types.SlotID) (types.Resident, bool) {
	r, ok := a.BySlot[id]
	return r, ok
}

// Match assigns each resident to a location slot. Residents are processed
// in input order and ties among equally valid slots resolve to slot input
// order, so repeated calls over the same inputs return the same assignment.
func Match(slots []types.LocationSlot, residents []types.Resident) *Assignment {
	result := &Assignment{
		BySlot: make(map[types.SlotID]types.Resident),
		Tiers:  make(map[types.SlotID]Tier),
	}

	// Slot keys are computed once per pass; slots are immutable.
	keys := make([]types.Key, len(slots))
	for i, slot := range slots {
		keys[i] = address.SlotKey(slot)
	}
	assigned := make(map[types.SlotID]bool, len(slots))

	for _, resident := range residents {
		key := address.KeyOf(resident.Address)

		if key.Block == "" {
			result.Unmatched = append(result.Unmatched, Unmatched{resident, ReasonMissingBlock})
			continue
		}
		if key.Lot == "" {
			result.Unmatched = append(result.Unmatched, Unmatched{resident, ReasonMissingLot})
			continue
		}

		slotID, tier, ok := place(slots, keys, assigned, key)
		if !ok {
			result.Unmatched = append(result.Unmatched, Unmatched{resident, ReasonNoSlot})
			logging.Debug().
				Str("resident_id", resident.ID).
				Str("key", key.String()).
				Msg("Resident unmatched after all tiers")
			continue
		}

		assigned[slotID] = true
		result.BySlot[slotID] = resident
		result.Tiers[slotID] = tier
		logging.Debug().
			Str("resident_id", resident.ID).
			Str("slot_id", string(slotID)).
			Str("tier", string(tier)).
			Msg("Resident matched to slot")
	}

	return result
}

// place runs the matching tiers for one resident key against the slots
// not yet assigned, returning the first hit.
func place(slots []types.LocationSlot, keys []types.Key, assigned map[types.SlotID]bool, key types.Key) (types.SlotID, Tier, bool) {
	// Exact: normalized block and lot both equal.
	for i, slot := range slots {
		if !assigned[slot.ID] && keys[i] == key {
			return slot.ID, TierExact, true
		}
	}

	// Fuzzy: currently the same comparison as exact, reported under its own
	// tier so a looser comparison can slot in without reshaping results.
	for i, slot := range slots {
		if !assigned[slot.ID] && fuzzyEqual(keys[i], key) {
			return slot.ID, TierFuzzy, true
		}
	}

	// Lot-only fallback: first unassigned slot with the same lot, ignoring
	// block, so a resident is not lost to block-labeling drift alone.
	for i, slot := range slots {
		if !assigned[slot.ID] && keys[i].Lot == key.Lot {
			return slot.ID, TierLotOnly, true
		}
	}

	return "", "", false
}

// fuzzyEqual is exact equality for now.
func fuzzyEqual(a, b types.Key) bool {
	return a == b
}
