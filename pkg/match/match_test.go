package match

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/homestead/lotmap/pkg/types"
)

func testSlots() []types.LocationSlot {
	return []types.LocationSlot{
		{ID: "slot_A_1", Block: "A", Lot: "1"},
		{ID: "slot_A_2", Block: "A", Lot: "2"},
		{ID: "slot_B_1", Block: "B", Lot: "1"},
		{ID: "slot_B_2", Block: "B", Lot: "2"},
	}
}

func resident(id, block, lot string) types.Resident {
	return types.Resident{
		ID:       id,
		FullName: "Resident " + id,
		Address:  types.Address{Block: block, Lot: lot},
	}
}

func TestMatchExact(t *testing.T) {
	tests := []struct {
		name     string
		resident types.Resident
		wantSlot types.SlotID
	}{
		{
			name:     "normalized input",
			resident: resident("r1", "B", "2"),
			wantSlot: "slot_B_2",
		},
		{
			name:     "long form input",
			resident: resident("r2", "Block 2", "Lot 2"),
			wantSlot: "slot_B_2",
		},
		{
			name:     "abbreviated block",
			resident: resident("r3", "blk 1", "Lot 1"),
			wantSlot: "slot_A_1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Match(testSlots(), []types.Resident{tt.resident})
			got, ok := a.ResidentFor(tt.wantSlot)
			if !ok {
				t.Fatalf("no resident assigned to %s", tt.wantSlot)
			}
			if got.ID != tt.resident.ID {
				t.Errorf("slot %s assigned to %s, want %s", tt.wantSlot, got.ID, tt.resident.ID)
			}
			if tier := a.Tiers[tt.wantSlot]; tier != TierExact {
				t.Errorf("tier = %s, want %s", tier, TierExact)
			}
			if len(a.Unmatched) != 0 {
				t.Errorf("unexpected unmatched residents: %+v", a.Unmatched)
			}
		})
	}
}

func TestMatchMalformedAddressRejected(t *testing.T) {
	tests := []struct {
		name       string
		resident   types.Resident
		wantReason Reason
	}{
		{
			name:       "missing block",
			resident:   resident("r1", "", "Lot 5"),
			wantReason: ReasonMissingBlock,
		},
		{
			name:       "missing lot",
			resident:   resident("r2", "Block 2", ""),
			wantReason: ReasonMissingLot,
		},
		{
			name:       "whitespace block",
			resident:   resident("r3", "   ", "Lot 5"),
			wantReason: ReasonMissingBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Match(testSlots(), []types.Resident{tt.resident})
			if len(a.BySlot) != 0 {
				t.Errorf("malformed address was assigned: %+v", a.BySlot)
			}
			if len(a.Unmatched) != 1 {
				t.Fatalf("unmatched = %d, want 1", len(a.Unmatched))
			}
			if a.Unmatched[0].Reason != tt.wantReason {
				t.Errorf("reason = %s, want %s", a.Unmatched[0].Reason, tt.wantReason)
			}
			if a.Unmatched[0].Resident.ID != tt.resident.ID {
				t.Errorf("unmatched resident = %s, want %s", a.Unmatched[0].Resident.ID, tt.resident.ID)
			}
		})
	}
}

func TestMatchLotOnlyFallback(t *testing.T) {
	// Block "C" exists nowhere in the layout; the resident still lands on
	// the first unassigned slot with lot 2.
	a := Match(testSlots(), []types.Resident{resident("r1", "Block 3", "Lot 2")})

	got, ok := a.ResidentFor("slot_A_2")
	if !ok || got.ID != "r1" {
		t.Fatalf("ResidentFor(slot_A_2) = %+v, %v; want r1", got, ok)
	}
	if tier := a.Tiers["slot_A_2"]; tier != TierLotOnly {
		t.Errorf("tier = %s, want %s", tier, TierLotOnly)
	}
}

func TestMatchLotOnlySkipsAssignedSlots(t *testing.T) {
	// r1 takes slot_A_2 exactly; r2's lot-only fallback must land on the
	// next free lot-2 slot instead of stealing it.
	residents := []types.Resident{
		resident("r1", "A", "2"),
		resident("r2", "Block 9", "Lot 2"),
	}
	a := Match(testSlots(), residents)

	if got, _ := a.ResidentFor("slot_A_2"); got.ID != "r1" {
		t.Errorf("slot_A_2 = %s, want r1", got.ID)
	}
	if got, _ := a.ResidentFor("slot_B_2"); got.ID != "r2" {
		t.Errorf("slot_B_2 = %s, want r2", got.ID)
	}
	if tier := a.Tiers["slot_B_2"]; tier != TierLotOnly {
		t.Errorf("tier = %s, want %s", tier, TierLotOnly)
	}
}

func TestMatchFirstResidentWins(t *testing.T) {
	// Two residents claim the same address; the first in input order keeps
	// the exact slot and the second falls through the tiers.
	residents := []types.Resident{
		resident("r1", "B", "1"),
		resident("r2", "B", "1"),
	}
	a := Match(testSlots(), residents)

	if got, _ := a.ResidentFor("slot_B_1"); got.ID != "r1" {
		t.Errorf("slot_B_1 = %s, want r1", got.ID)
	}
	// r2's lot-only fallback finds the free lot-1 slot in block A.
	if got, _ := a.ResidentFor("slot_A_1"); got.ID != "r2" {
		t.Errorf("slot_A_1 = %s, want r2", got.ID)
	}
}

func TestMatchNoSlotLeft(t *testing.T) {
	slots := []types.LocationSlot{{ID: "slot_A_1", Block: "A", Lot: "1"}}
	residents := []types.Resident{
		resident("r1", "A", "1"),
		resident("r2", "A", "1"),
	}
	a := Match(slots, residents)

	if len(a.Unmatched) != 1 {
		t.Fatalf("unmatched = %d, want 1", len(a.Unmatched))
	}
	if a.Unmatched[0].Resident.ID != "r2" || a.Unmatched[0].Reason != ReasonNoSlot {
		t.Errorf("unmatched = %+v, want r2/%s", a.Unmatched[0], ReasonNoSlot)
	}
}

func TestMatchDeterministic(t *testing.T) {
	residents := []types.Resident{
		resident("r1", "Block 1", "Lot 1"),
		resident("r2", "Block 1", "Lot 2"),
		resident("r3", "Block 2", "Lot 1"),
		resident("r4", "Block 5", "Lot 2"),
		resident("r5", "", "Lot 3"),
	}

	first := Match(testSlots(), residents)
	for i := 0; i < 10; i++ {
		again := Match(testSlots(), residents)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("assignment differs across runs (-first +again):\n%s", diff)
		}
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	a := Match(nil, nil)
	if len(a.BySlot) != 0 || len(a.Unmatched) != 0 {
		t.Errorf("empty inputs produced assignments: %+v", a)
	}

	a = Match(testSlots(), nil)
	if len(a.BySlot) != 0 {
		t.Errorf("no residents but slots assigned: %+v", a.BySlot)
	}

	a = Match(nil, []types.Resident{resident("r1", "A", "1")})
	if len(a.Unmatched) != 1 || a.Unmatched[0].Reason != ReasonNoSlot {
		t.Errorf("resident without slots should be unmatched with %s, got %+v", ReasonNoSlot, a.Unmatched)
	}
}
