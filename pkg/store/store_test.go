package store

import (
	"context"
	"testing"

	"github.com/homestead/lotmap/pkg/docstore"
	"github.com/homestead/lotmap/pkg/docstore/memory"
	"github.com/homestead/lotmap/pkg/errors"
	"github.com/homestead/lotmap/pkg/types"
)

// countingCollection wraps a collection and counts persisted writes.
type countingCollection struct {
	docstore.Collection
	inserts int
	updates int
	sets    int
}

func (c *countingCollection) Insert(ctx context.Context, fields map[string]any) (string, error) {
	c.inserts++
	return c.Collection.Insert(ctx, fields)
}

func (c *countingCollection) Update(ctx context.Context, id string, fields map[string]any) error {
	c.updates++
	return c.Collection.Update(ctx, id, fields)
}

func (c *countingCollection) Set(ctx context.Context, id string, fields map[string]any) error {
	c.sets++
	return c.Collection.Set(ctx, id, fields)
}

func newTestStore() (*MarkerStore, *countingCollection, *countingCollection) {
	mem := memory.New()
	pins := &countingCollection{Collection: mem.Collection("mapPins")}
	positions := &countingCollection{Collection: mem.Collection("markerPositions")}
	return New(pins, positions), pins, positions
}

func TestCreatePin(t *testing.T) {
	ctx := context.Background()
	s, pins, _ := newTestStore()

	id, err := s.CreateOrUpdatePin(ctx, PinParams{
		Block: "Block 2", Lot: "Lot 5",
		Pos:        types.Position{X: 10, Y: 20},
		IsOccupied: true, IsAvailable: true,
	}, false)
	if err != nil {
		t.Fatalf("CreateOrUpdatePin() error = %v", err)
	}
	if id == "" {
		t.Fatal("empty pin ID")
	}
	if pins.inserts != 1 {
		t.Errorf("inserts = %d, want 1", pins.inserts)
	}

	pin, ok := s.PinByKey(types.Key{Block: "B", Lot: "5"})
	if !ok {
		t.Fatal("created pin not indexed under normalized key")
	}
	if pin.ID != id || pin.X != 10 || !pin.IsOccupied {
		t.Errorf("indexed pin = %+v", pin)
	}
}

func TestCreatePinValidation(t *testing.T) {
	ctx := context.Background()
	s, pins, _ := newTestStore()

	tests := []struct {
		name   string
		params PinParams
	}{
		{name: "missing block", params: PinParams{Lot: "Lot 5"}},
		{name: "missing lot", params: PinParams{Block: "Block 2"}},
		{name: "both missing", params: PinParams{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateOrUpdatePin(ctx, tt.params, false)
			if !errors.IsValidationError(err) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
	if pins.inserts != 0 {
		t.Errorf("invalid params reached the store: %d inserts", pins.inserts)
	}
}

func TestCreatePinConflict(t *testing.T) {
	ctx := context.Background()
	s, pins, _ := newTestStore()

	first, err := s.CreateOrUpdatePin(ctx, PinParams{Block: "B", Lot: "5"}, false)
	if err != nil {
		t.Fatalf("first create error = %v", err)
	}

	// Same key in a different raw shape: still a conflict.
	_, err = s.CreateOrUpdatePin(ctx, PinParams{Block: "Block 2", Lot: "Lot 5"}, false)
	if !errors.IsPinConflict(err) {
		t.Fatalf("error = %v, want pin conflict", err)
	}
	if pins.inserts != 1 || pins.updates != 0 {
		t.Errorf("conflict touched the store: %d inserts, %d updates", pins.inserts, pins.updates)
	}
	if got := len(s.Pins()); got != 1 {
		t.Errorf("pin count after conflict = %d, want 1", got)
	}

	// Confirmed: overwrite the existing pin in place, same ID.
	id, err := s.CreateOrUpdatePin(ctx, PinParams{
		Block: "Block 2", Lot: "Lot 5",
		Pos:        types.Position{X: 99, Y: 1},
		IsOccupied: true,
	}, true)
	if err != nil {
		t.Fatalf("confirmed update error = %v", err)
	}
	if id != first {
		t.Errorf("confirmed update created a new pin: %s != %s", id, first)
	}
	if pins.updates != 1 || pins.inserts != 1 {
		t.Errorf("writes = %d inserts, %d updates; want 1, 1", pins.inserts, pins.updates)
	}

	pin, _ := s.PinByKey(types.Key{Block: "B", Lot: "5"})
	if pin.X != 99 || !pin.IsOccupied {
		t.Errorf("pin after confirmed update = %+v", pin)
	}
}

func TestMovePinIsLocalOnly(t *testing.T) {
	ctx := context.Background()
	s, pins, _ := newTestStore()

	id, err := s.CreateOrUpdatePin(ctx, PinParams{Block: "B", Lot: "5"}, false)
	if err != nil {
		t.Fatalf("create error = %v", err)
	}
	writesBefore := pins.inserts + pins.updates

	// A drag produces many moves; none of them persist.
	for i := 0; i < 25; i++ {
		if err := s.MovePin(id, types.Position{X: float64(i), Y: float64(i)}); err != nil {
			t.Fatalf("MovePin() error = %v", err)
		}
	}
	if got := pins.inserts + pins.updates; got != writesBefore {
		t.Errorf("MovePin persisted %d writes", got-writesBefore)
	}

	// The local index tracks the latest position immediately.
	pin, _ := s.PinByKey(types.Key{Block: "B", Lot: "5"})
	if pin.X != 24 || pin.Y != 24 {
		t.Errorf("local position = (%v, %v), want (24, 24)", pin.X, pin.Y)
	}
}

func TestMovePinUnknown(t *testing.T) {
	s, _, _ := newTestStore()
	if err := s.MovePin("ghost", types.Position{}); !errors.IsNotFound(err) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestReleasePinWritesOnce(t *testing.T) {
	ctx := context.Background()
	s, pins, _ := newTestStore()

	id, err := s.CreateOrUpdatePin(ctx, PinParams{Block: "B", Lot: "5"}, false)
	if err != nil {
		t.Fatalf("create error = %v", err)
	}

	for i := 0; i < 10; i++ {
		_ = s.MovePin(id, types.Position{X: float64(i)})
	}
	if err := s.ReleasePin(ctx, id); err != nil {
		t.Fatalf("ReleasePin() error = %v", err)
	}
	if pins.updates != 1 {
		t.Errorf("updates = %d, want exactly 1", pins.updates)
	}

	// Releasing again without a pending move is a no-op.
	if err := s.ReleasePin(ctx, id); err != nil {
		t.Fatalf("second ReleasePin() error = %v", err)
	}
	if pins.updates != 1 {
		t.Errorf("no-op release wrote: updates = %d", pins.updates)
	}
}

func TestLoadPositionsEmpty(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore()

	positions, err := s.LoadPositions(ctx)
	if err != nil {
		t.Fatalf("LoadPositions() error = %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("positions = %v, want empty", positions)
	}
}

func TestMarkerPositionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _, positions := newTestStore()

	if err := s.SetMarkerPosition(ctx, types.BlockPositionKey("B"), types.Position{X: 5, Y: 6}); err != nil {
		t.Fatalf("SetMarkerPosition() error = %v", err)
	}
	if err := s.SetMarkerPosition(ctx, types.LotPositionKey("B", "5"), types.Position{X: 7, Y: 8}); err != nil {
		t.Fatalf("SetMarkerPosition() error = %v", err)
	}
	if positions.sets != 2 {
		t.Errorf("sets = %d, want 2", positions.sets)
	}

	got, err := s.LoadPositions(ctx)
	if err != nil {
		t.Fatalf("LoadPositions() error = %v", err)
	}
	if got["block_B"] != (types.Position{X: 5, Y: 6}) {
		t.Errorf("block_B = %+v", got["block_B"])
	}
	if got["lot_B_5"] != (types.Position{X: 7, Y: 8}) {
		t.Errorf("lot_B_5 = %+v", got["lot_B_5"])
	}
}

func TestApplySnapshotDelta(t *testing.T) {
	s, _, _ := newTestStore()

	snap := docstore.Snapshot{
		{ID: "p1", Fields: map[string]any{"block": "B", "lot": "1"}},
		{ID: "p2", Fields: map[string]any{"block": "B", "lot": "2"}},
	}
	delta := s.ApplySnapshot(snap)
	if delta.Added != 2 || delta.Updated != 0 || delta.Removed != 0 {
		t.Errorf("delta = %+v, want 2 added", delta)
	}

	// p1 changes, p2 disappears, p3 arrives.
	next := docstore.Snapshot{
		{ID: "p1", Fields: map[string]any{"block": "B", "lot": "1", "isOccupied": true}},
		{ID: "p3", Fields: map[string]any{"block": "B", "lot": "3"}},
	}
	delta = s.ApplySnapshot(next)
	if delta.Added != 1 || delta.Updated != 1 || delta.Removed != 1 {
		t.Errorf("delta = %+v, want 1/1/1", delta)
	}

	if _, ok := s.PinByKey(types.Key{Block: "B", Lot: "2"}); ok {
		t.Error("removed pin still indexed by key")
	}
	if delta := s.ApplySnapshot(next); delta.HasChanges() {
		t.Errorf("identical snapshot reported changes: %+v", delta)
	}
}

func TestApplySnapshotDuplicateKeyFirstWins(t *testing.T) {
	s, _, _ := newTestStore()

	snap := docstore.Snapshot{
		{ID: "p1", Fields: map[string]any{"block": "B", "lot": "2"}},
		{ID: "p2", Fields: map[string]any{"block": "Block 2", "lot": "Lot 2"}},
	}
	s.ApplySnapshot(snap)

	pin, ok := s.PinByKey(types.Key{Block: "B", Lot: "2"})
	if !ok {
		t.Fatal("key not indexed")
	}
	if pin.ID != "p1" {
		t.Errorf("indexed pin = %s, want first-by-order p1", pin.ID)
	}
	if got := len(s.Pins()); got != 2 {
		t.Errorf("pins = %d, want both retained by ID", got)
	}
}
