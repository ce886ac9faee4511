package syncengine

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/homestead/lotmap/pkg/types"
)

func availableResident(id, block, lot string) types.Resident {
	return types.Resident{
		ID:           id,
		Address:      types.Address{Block: block, Lot: lot},
		Availability: types.Available,
	}
}

func TestReconcileEmitsWrite(t *testing.T) {
	residents := []types.Resident{availableResident("r1", "B", "5")}
	pins := []types.Pin{{ID: "p1", Block: "B", Lot: "5", IsOccupied: true, IsAvailable: false}}

	writes, next := Reconcile(residents, pins, Cursor{})

	want := []PinWrite{{PinID: "p1", Key: types.Key{Block: "B", Lot: "5"}, Desired: true, Status: types.Available}}
	if diff := cmp.Diff(want, writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
	// Keys needing a write stay out of the cursor until the write lands.
	if _, ok := next[types.Key{Block: "B", Lot: "5"}]; ok {
		t.Error("unwritten key recorded in cursor")
	}
}

func TestReconcileRecordsConsistentWithoutWrite(t *testing.T) {
	// First run after startup: the pin already holds the resident's status.
	// The cursor is recorded so later runs skip the key, and no write storm
	// happens.
	residents := []types.Resident{availableResident("r1", "B", "5")}
	pins := []types.Pin{{ID: "p1", Block: "B", Lot: "5", IsOccupied: true, IsAvailable: true}}

	writes, next := Reconcile(residents, pins, Cursor{})

	if len(writes) != 0 {
		t.Errorf("consistent pin produced writes: %+v", writes)
	}
	if next[types.Key{Block: "B", Lot: "5"}] != types.Available {
		t.Error("consistent key not recorded in cursor")
	}
}

func TestReconcileCursorSuppressesRepeat(t *testing.T) {
	key := types.Key{Block: "B", Lot: "5"}
	residents := []types.Resident{availableResident("r1", "B", "5")}
	pins := []types.Pin{{ID: "p1", Block: "B", Lot: "5", IsOccupied: true, IsAvailable: false}}

	// The cursor already says Available was synced for this key; the
	// resident still reports Available, so nothing runs, even though the
	// pin has since been hand-edited the other way.
	writes, _ := Reconcile(residents, pins, Cursor{key: types.Available})
	if len(writes) != 0 {
		t.Errorf("cursor-suppressed key produced writes: %+v", writes)
	}

	// A genuine status change gets through.
	residents[0].Availability = types.Unavailable
	writes, _ = Reconcile(residents, pins, Cursor{key: types.Available})
	if len(writes) != 0 {
		// Pin already holds isAvailable=false, the desired value.
		t.Errorf("already-consistent change produced writes: %+v", writes)
	}
}

func TestReconcileSkipsUnoccupiedAndMissingPins(t *testing.T) {
	tests := []struct {
		name string
		pins []types.Pin
	}{
		{
			name: "unoccupied pin",
			pins: []types.Pin{{ID: "p1", Block: "B", Lot: "5", IsOccupied: false}},
		},
		{
			name: "no pin at all",
			pins: nil,
		},
		{
			name: "pin on a different key",
			pins: []types.Pin{{ID: "p1", Block: "A", Lot: "1", IsOccupied: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			residents := []types.Resident{availableResident("r1", "B", "5")}
			writes, next := Reconcile(residents, tt.pins, Cursor{})
			if len(writes) != 0 {
				t.Errorf("writes = %+v, want none", writes)
			}
			if _, ok := next[types.Key{Block: "B", Lot: "5"}]; ok {
				t.Error("skipped key recorded in cursor")
			}
		})
	}
}

func TestReconcileSkipsMalformedAddresses(t *testing.T) {
	residents := []types.Resident{
		{ID: "r1", Address: types.Address{Lot: "Lot 5"}, Availability: types.Available},
		{ID: "r2", Address: types.Address{Block: "B"}, Availability: types.Available},
	}
	pins := []types.Pin{{ID: "p1", Block: "B", Lot: "5", IsOccupied: true}}

	writes, next := Reconcile(residents, pins, Cursor{})
	if len(writes) != 0 || len(next) != 0 {
		t.Errorf("malformed addresses reached the pins: writes=%+v cursor=%+v", writes, next)
	}
}

func TestReconcileFirstResidentClaimsKey(t *testing.T) {
	residents := []types.Resident{
		availableResident("r1", "B", "5"),
		{ID: "r2", Address: types.Address{Block: "Block 2", Lot: "Lot 5"}, Availability: types.Unavailable},
	}
	pins := []types.Pin{{ID: "p1", Block: "B", Lot: "5", IsOccupied: true, IsAvailable: false}}

	writes, _ := Reconcile(residents, pins, Cursor{})
	if len(writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(writes))
	}
	if writes[0].Status != types.Available {
		t.Errorf("second resident's status won the key: %+v", writes[0])
	}
}

func TestReconcileNormalizesRawAddresses(t *testing.T) {
	residents := []types.Resident{{
		ID:           "r1",
		Address:      types.Address{Block: "Block 2", Lot: "Lot 5"},
		Availability: types.Available,
	}}
	pins := []types.Pin{{ID: "p1", Block: "B", Lot: "5", IsOccupied: true, IsAvailable: false}}

	writes, _ := Reconcile(residents, pins, Cursor{})
	if len(writes) != 1 || writes[0].PinID != "p1" {
		t.Errorf("raw address did not reach the normalized pin: %+v", writes)
	}
}

func TestReconcilePure(t *testing.T) {
	residents := []types.Resident{availableResident("r1", "B", "5")}
	pins := []types.Pin{{ID: "p1", Block: "B", Lot: "5", IsOccupied: true, IsAvailable: false}}
	cursor := Cursor{{Block: "A", Lot: "1"}: types.Unavailable}

	_, next := Reconcile(residents, pins, cursor)

	if len(cursor) != 1 {
		t.Error("input cursor mutated")
	}
	next[types.Key{Block: "Z", Lot: "9"}] = types.Available
	if len(cursor) != 1 {
		t.Error("returned cursor aliases the input")
	}
}
