// Package syncengine mirrors resident-reported availability into the
// matching pins' isAvailable flag without entering an update cycle with
// itself. The feedback loop is broken structurally: the engine triggers
// only on resident-stream changes, never on pin-stream changes, and a
// per-key cursor of the last synced status suppresses redundant writes.
package syncengine

import (
	"github.com/homestead/lotmap/pkg/address"
	"github.com/homestead/lotmap/pkg/precedence"
	"github.com/homestead/lotmap/pkg/types"
)

// Cursor records, per normalized (block, lot) key, the last availability
// status successfully mirrored into that key's pin. It is process-local
// write-optimization state, never part of the displayed model.
type Cursor map[types.Key]types.AvailabilityStatus

// Clone copies the cursor.
func (c Cursor) Clone() Cursor {
	next := make(Cursor, len(c))
	for k, v := range c {
		next[k] = v
	}
	return next
}

// PinWrite is one pending availability write to a pin.
type PinWrite struct {
	PinID   string
	Key     types.Key
	Desired bool                     // isAvailable value to write
	Status  types.AvailabilityStatus // resident status being mirrored
}

// Reconcile computes the pin writes needed to bring occupied pins in line
// with their residents' current availability. It is a pure function: no
// I/O, no mutation of its inputs.
//
// The returned cursor carries the keys that became consistent without a
// write (the pin already held the desired value). Keys that need a write
// appear in writes but NOT in the returned cursor; the caller records them
// only after the write succeeds, so a failed write is retried on the next
// natural trigger.
func Reconcile(residents []types.Resident, pins []types.Pin, cursor Cursor) ([]PinWrite, Cursor) {
	next := cursor.Clone()
	index := precedence.IndexPins(pins)

	var writes []PinWrite
	claimed := make(map[types.Key]bool)

	for _, resident := range residents {
		key := address.KeyOf(resident.Address)
		if key.IsZero() || claimed[key] {
			continue
		}
		claimed[key] = true

		status := resident.Availability

		// Already consistent, or already attempted this status.
		if next[key] == status {
			continue
		}

		// Unoccupied and non-existent pins are never touched.
		pin, ok := index[key]
		if !ok || !pin.IsOccupied {
			continue
		}

		desired := status == types.Available
		if pin.IsAvailable == desired {
			// Consistent on first sight; record without writing so the
			// first run after startup produces no write storm.
			next[key] = status
			continue
		}

		writes = append(writes, PinWrite{
			PinID:   pin.ID,
			Key:     key,
			Desired: desired,
			Status:  status,
		})
	}

	return writes, next
}
