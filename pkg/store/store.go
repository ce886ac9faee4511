// Package store manages administrator-placed pins and cosmetic marker
// position overrides, persisting both to the hosted document store. Pins
// are uniquely identified by their normalized (block, lot) key; creating a
// second pin on a taken key is a conflict that requires explicit
// confirmation to proceed as an update.
package store

import (
	"context"
	"sync"

	"github.com/agentstation/utc"

	"github.com/homestead/lotmap/pkg/address"
	"github.com/homestead/lotmap/pkg/docstore"
	"github.com/homestead/lotmap/pkg/errors"
	"github.com/homestead/lotmap/pkg/logging"
	"github.com/homestead/lotmap/pkg/types"
)

// positionsDocID is the singleton document holding the marker position map.
const positionsDocID = "positions"

// PinParams are the caller-supplied attributes for a pin write.
type PinParams struct {
	Block       string
	Lot         string
	Street      string
	Pos         types.Position
	IsOccupied  bool
	IsAvailable bool
}

// Delta summarizes what changed between two pin snapshots.
type Delta struct {
	Added   int
	Updated int
	Removed int
}

// HasChanges reports whether the delta carries any change.
func (d Delta) HasChanges() bool {
	return d.Added+d.Updated+d.Removed > 0
}

// MarkerStore holds the current pin set and pending drag state. Reads come
// from full-set snapshots; ApplySnapshot derives insert/update/delete by
// normalized key and keeps the local index consistent.
type MarkerStore struct {
	pins      docstore.Collection
	positions docstore.Collection

	mu      sync.RWMutex
	byKey   map[types.Key]types.Pin
	byID    map[string]types.Pin
	pending map[string]types.Position // in-flight drag positions, not yet persisted
}

// New creates a MarkerStore over the pin and position collections.
func New(pins, positions docstore.Collection) *MarkerStore {
	return &MarkerStore{
		pins:      pins,
		positions: positions,
		byKey:     make(map[types.Key]types.Pin),
		byID:      make(map[string]types.Pin),
		pending:   make(map[string]types.Position),
	}
}

// ApplySnapshot replaces the local pin index with the snapshot's contents
// and returns what changed, keyed by pin ID.
func (s *MarkerStore) ApplySnapshot(snap docstore.Snapshot) Delta {
	next := make(map[string]types.Pin, len(snap))
	for _, doc := range snap {
		next[doc.ID] = types.DecodePin(doc.ID, doc.Fields)
	}

	s.mu.Lock()
	var delta Delta
	for id, pin := range next {
		if prev, ok := s.byID[id]; !ok {
			delta.Added++
		} else if prev != pin {
			delta.Updated++
		}
	}
	for id := range s.byID {
		if _, ok := next[id]; !ok {
			delta.Removed++
		}
	}

	s.byID = next
	s.byKey = make(map[types.Key]types.Pin, len(next))
	for _, doc := range snap {
		pin := next[doc.ID]
		key := address.PinKey(pin)
		if _, taken := s.byKey[key]; !taken {
			s.byKey[key] = pin
		}
	}
	s.mu.Unlock()

	if delta.HasChanges() {
		logging.Debug().
			Int("added", delta.Added).
			Int("updated", delta.Updated).
			Int("removed", delta.Removed).
			Msg("Pin snapshot applied")
	}
	return delta
}

// Pins returns the current pin set.
func (s *MarkerStore) Pins() []types.Pin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pins := make([]types.Pin, 0, len(s.byID))
	for _, pin := range s.byID {
		pins = append(pins, pin)
	}
	return pins
}

// PinByKey returns the pin holding a normalized (block, lot) key.
func (s *MarkerStore) PinByKey(key types.Key) (types.Pin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pin, ok := s.byKey[key]
	return pin, ok
}

// CreateOrUpdatePin writes a pin. When the normalized (block, lot) key is
// already taken the operation is a conflict: without confirm it returns a
// PinConflictError and writes nothing; with confirm it overwrites the
// existing pin's position and flags. On success it returns the pin ID.
func (s *MarkerStore) CreateOrUpdatePin(ctx context.Context, params PinParams, confirm bool) (string, error) {
	key := types.Key{
		Block: address.Normalize(params.Block, address.Block),
		Lot:   address.Normalize(params.Lot, address.Lot),
	}
	if key.IsZero() {
		return "", errors.NewValidationError("block/lot", params, "pin requires both block and lot")
	}

	s.mu.Lock()
	existing, taken := s.byKey[key]
	s.mu.Unlock()

	now := utc.Now()
	if taken {
		if !confirm {
			logging.Debug().
				Str("key", key.String()).
				Str("existing_id", existing.ID).
				Msg("Pin create rejected: key conflict without confirmation")
			return "", errors.NewPinConflictError(params.Block, params.Lot, existing.ID)
		}

		updated := existing
		updated.X = params.Pos.X
		updated.Y = params.Pos.Y
		updated.Block = params.Block
		updated.Lot = params.Lot
		updated.Street = params.Street
		updated.IsOccupied = params.IsOccupied
		updated.IsAvailable = params.IsAvailable
		updated.UpdatedAt = now

		fields := types.EncodePin(updated)
		delete(fields, "createdAt")
		if err := s.pins.Update(ctx, existing.ID, fields); err != nil {
			return "", errors.WrapWrite(s.pins.Name(), existing.ID, key.String(), err)
		}
		s.index(updated)
		return existing.ID, nil
	}

	pin := types.Pin{
		X:           params.Pos.X,
		Y:           params.Pos.Y,
		Block:       params.Block,
		Lot:         params.Lot,
		Street:      params.Street,
		IsOccupied:  params.IsOccupied,
		IsAvailable: params.IsAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := s.pins.Insert(ctx, types.EncodePin(pin))
	if err != nil {
		return "", errors.WrapWrite(s.pins.Name(), "", key.String(), err)
	}
	pin.ID = id
	s.index(pin)

	logging.Info().
		Str("pin_id", id).
		Str("key", key.String()).
		Msg("Pin created")
	return id, nil
}

// MovePin records a new position for an in-progress drag. It only touches
// local state, so it is idempotent and safe to call on every pointer move;
// nothing is persisted until ReleasePin.
func (s *MarkerStore) MovePin(id string, pos types.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pin, ok := s.byID[id]
	if !ok {
		return errors.NewNotFoundError("pin", id)
	}
	s.pending[id] = pos
	pin.X, pin.Y = pos.X, pos.Y
	s.indexLocked(pin)
	return nil
}

// ReleasePin ends a drag gesture, persisting the pending position with
// exactly one write. Releasing a pin with no pending move is a no-op.
func (s *MarkerStore) ReleasePin(ctx context.Context, id string) error {
	s.mu.Lock()
	pos, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	now := utc.Now()
	err := s.pins.Update(ctx, id, map[string]any{
		"x":         pos.X,
		"y":         pos.Y,
		"updatedAt": now.String(),
	})
	if err != nil {
		return errors.WrapWrite(s.pins.Name(), id, "", err)
	}
	return nil
}

// LoadPositions reads the marker position override map. Called once at
// startup; positions are purely cosmetic.
func (s *MarkerStore) LoadPositions(ctx context.Context) (map[string]types.Position, error) {
	doc, err := s.positions.Get(ctx, positionsDocID)
	if errors.IsNotFound(err) {
		return map[string]types.Position{}, nil
	}
	if err != nil {
		return nil, err
	}

	positions := make(map[string]types.Position, len(doc.Fields))
	for key, raw := range doc.Fields {
		if entry, ok := raw.(map[string]any); ok {
			positions[key] = types.Position{X: number(entry["x"]), Y: number(entry["y"])}
		}
	}
	return positions, nil
}

// SetMarkerPosition upserts one position override. Last writer wins; there
// is no conflict detection because overrides carry no uniqueness constraint.
func (s *MarkerStore) SetMarkerPosition(ctx context.Context, key string, pos types.Position) error {
	err := s.positions.Set(ctx, positionsDocID, map[string]any{
		key: map[string]any{"x": pos.X, "y": pos.Y},
	})
	if err != nil {
		return errors.WrapWrite(s.positions.Name(), positionsDocID, key, err)
	}
	return nil
}

// index updates the local maps after a successful write so key uniqueness
// holds between snapshot deliveries.
func (s *MarkerStore) index(pin types.Pin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexLocked(pin)
}

func (s *MarkerStore) indexLocked(pin types.Pin) {
	s.byID[pin.ID] = pin
	s.byKey[address.PinKey(pin)] = pin
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
