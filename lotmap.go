// Package lotmap reconciles two independently-edited record sets, resident
// records with self-reported addresses and administrator-placed map pins,
// into one consistent subdivision map. It matches residents to canonical
// location slots, lets pins override resident-derived markers, mirrors
// resident availability back into occupied pins without feedback loops, and
// filters the merged marker set for presentation.
//
// The engine is a library: it owns no transport or rendering. A presentation
// layer constructs it over a docstore (hosted or in-memory), runs it, and
// reads Markers/Unmatched/Query.
package lotmap

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/homestead/lotmap/pkg/docstore"
	"github.com/homestead/lotmap/pkg/match"
	"github.com/homestead/lotmap/pkg/precedence"
	"github.com/homestead/lotmap/pkg/store"
	"github.com/homestead/lotmap/pkg/syncengine"
	"github.com/homestead/lotmap/pkg/types"
	"github.com/homestead/lotmap/pkg/view"
)

// Engine is the resident-to-location matching and synchronization engine.
type Engine interface {
	// Run subscribes to the resident and pin streams and re-derives the
	// marker set on every snapshot until ctx is canceled.
	Run(ctx context.Context) error

	// Markers returns the current merged marker set.
	Markers() []types.MarkerView

	// Unmatched returns the diagnostic list of residents no tier could
	// place. They remain in the dataset; they are only absent from the map.
	Unmatched() []match.Unmatched

	// Query filters the current markers by search text and status.
	Query(query string, status view.Status) []types.MarkerView

	// Positions returns the cosmetic marker position overrides.
	Positions() map[string]types.Position

	// Store exposes the marker store for manual pin and position edits.
	Store() *store.MarkerStore

	// Stats returns engine counters.
	Stats() Stats

	// OnMarkersChanged registers a callback fired when the marker set
	// changes after a snapshot.
	OnMarkersChanged(MarkersChangedHook)

	// OnUnmatchedChanged registers a callback fired when the unmatched
	// list changes.
	OnUnmatchedChanged(UnmatchedChangedHook)
}

// Stats aggregates engine counters for diagnostics.
type Stats struct {
	ResidentsTracked  int
	ResidentsExcluded int
	Matched           int
	Unmatched         int
	PinsTracked       int
	Sync              syncengine.Stats
}

// engine is the internal implementation of the Engine interface.
type engine struct {
	config *config
	slots  []types.LocationSlot
	log    *zerolog.Logger

	markerStore *store.MarkerStore
	syncer      *syncengine.Engine
	hooks       *hooks

	mu        sync.RWMutex
	residents []types.Resident
	excluded  int
	matched   int
	markers   []types.MarkerView
	unmatched []match.Unmatched
	positions map[string]types.Position
}

// New creates an Engine with the given options.
func New(opts ...Option) (Engine, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	e := &engine{
		config:    cfg,
		slots:     cfg.slots,
		log:       cfg.logger,
		hooks:     newHooks(),
		positions: map[string]types.Position{},
	}

	pins := cfg.store.Collection(cfg.pinsCollection)
	positions := cfg.store.Collection(cfg.positionsCollection)
	e.markerStore = store.New(pins, positions)

	// The sync engine writes through the same pin collection the snapshot
	// subscription reads, but its trigger is wired only to the resident
	// stream (see Run); that one-way wiring is what prevents oscillation.
	e.syncer = syncengine.New(
		pins,
		e.currentResidents,
		e.markerStore.Pins,
		syncengine.WithDebounce(cfg.debounce),
	)

	return e, nil
}

// Run subscribes to both streams and processes snapshots until ctx ends.
func (e *engine) Run(ctx context.Context) error {
	positions, err := e.markerStore.LoadPositions(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.positions = positions
	e.mu.Unlock()

	residentsCh, err := e.config.store.Collection(e.config.residentsCollection).Subscribe(ctx)
	if err != nil {
		return err
	}
	pinsCh, err := e.config.store.Collection(e.config.pinsCollection).Subscribe(ctx)
	if err != nil {
		return err
	}

	e.log.Info().
		Int("slots", len(e.slots)).
		Msg("Lotmap engine running")

	for {
		select {
		case <-ctx.Done():
			e.syncer.Stop()
			return nil

		case snap, ok := <-residentsCh:
			if !ok {
				e.syncer.Stop()
				return nil
			}
			e.applyResidents(ctx, snap)

		case snap, ok := <-pinsCh:
			if !ok {
				e.syncer.Stop()
				return nil
			}
			// Pin snapshots refresh the view only. They never touch the
			// sync engine; re-deriving its trigger from both streams would
			// reintroduce the feedback cycle.
			e.applyPins(snap)
		}
	}
}

// applyResidents ingests a resident snapshot, recomputes the marker set,
// and triggers the sync engine.
func (e *engine) applyResidents(ctx context.Context, snap docstore.Snapshot) {
	residents := make([]types.Resident, 0, len(snap))
	excluded := 0
	for _, doc := range snap {
		resident, ok := types.DecodeResident(doc.ID, doc.Fields)
		if !ok {
			excluded++
			continue
		}
		residents = append(residents, resident)
	}

	e.mu.Lock()
	e.residents = residents
	e.excluded = excluded
	e.mu.Unlock()

	e.log.Debug().
		Int("residents", len(residents)).
		Int("excluded", excluded).
		Msg("Resident snapshot applied")

	e.recompute()
	e.syncer.Trigger(ctx)
}

// applyPins ingests a pin snapshot and recomputes the marker set.
func (e *engine) applyPins(snap docstore.Snapshot) {
	e.markerStore.ApplySnapshot(snap)
	e.recompute()
}

// recompute re-derives the full marker set from the current residents and
// pins. Snapshots carry complete state, so recomputation never assumes a
// partial update.
func (e *engine) recompute() {
	e.mu.RLock()
	residents := e.residents
	e.mu.RUnlock()

	assignment := match.Match(e.slots, residents)
	markers := precedence.Resolve(e.slots, assignment, e.markerStore.Pins())

	e.mu.Lock()
	markersChanged := !markersEqual(e.markers, markers)
	unmatchedChanged := !unmatchedEqual(e.unmatched, assignment.Unmatched)
	e.markers = markers
	e.unmatched = assignment.Unmatched
	e.matched = len(assignment.BySlot)
	e.mu.Unlock()

	if markersChanged {
		e.hooks.triggerMarkersChanged(markers)
	}
	if unmatchedChanged {
		e.hooks.triggerUnmatchedChanged(assignment.Unmatched)
	}
}

// currentResidents is the sync engine's view of the resident stream.
func (e *engine) currentResidents() []types.Resident {
	e.mu.RLock()
	defer e.mu.RUnlock()
	residents := make([]types.Resident, len(e.residents))
	copy(residents, e.residents)
	return residents
}

// Markers returns the current merged marker set.
func (e *engine) Markers() []types.MarkerView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	markers := make([]types.MarkerView, len(e.markers))
	copy(markers, e.markers)
	return markers
}

// Unmatched returns the current unmatched resident diagnostics.
func (e *engine) Unmatched() []match.Unmatched {
	e.mu.RLock()
	defer e.mu.RUnlock()
	unmatched := make([]match.Unmatched, len(e.unmatched))
	copy(unmatched, e.unmatched)
	return unmatched
}

// Query filters the current markers by search text and status.
func (e *engine) Query(query string, status view.Status) []types.MarkerView {
	return view.Apply(e.Markers(), query, status)
}

// Positions returns the cosmetic position overrides read at startup.
func (e *engine) Positions() map[string]types.Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	positions := make(map[string]types.Position, len(e.positions))
	for k, v := range e.positions {
		positions[k] = v
	}
	return positions
}

// Store exposes the marker store for manual edits.
func (e *engine) Store() *store.MarkerStore {
	return e.markerStore
}

// Stats returns engine counters.
func (e *engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		ResidentsTracked:  len(e.residents),
		ResidentsExcluded: e.excluded,
		Matched:           e.matched,
		Unmatched:         len(e.unmatched),
		PinsTracked:       len(e.markerStore.Pins()),
		Sync:              e.syncer.Stats(),
	}
}

// OnMarkersChanged registers a marker change callback.
func (e *engine) OnMarkersChanged(fn MarkersChangedHook) {
	e.hooks.onMarkersChanged(fn)
}

// OnUnmatchedChanged registers an unmatched change callback.
func (e *engine) OnUnmatchedChanged(fn UnmatchedChangedHook) {
	e.hooks.onUnmatchedChanged(fn)
}

func markersEqual(a, b []types.MarkerView) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !markerEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func markerEqual(a, b types.MarkerView) bool {
	if a.Slot != b.Slot || a.State != b.State {
		return false
	}
	if (a.Pin == nil) != (b.Pin == nil) || (a.Resident == nil) != (b.Resident == nil) {
		return false
	}
	if a.Pin != nil && *a.Pin != *b.Pin {
		return false
	}
	if a.Resident != nil && !residentEqual(*a.Resident, *b.Resident) {
		return false
	}
	return true
}

func residentEqual(a, b types.Resident) bool {
	if (a.Geo == nil) != (b.Geo == nil) {
		return false
	}
	if a.Geo != nil && *a.Geo != *b.Geo {
		return false
	}
	a.Geo, b.Geo = nil, nil
	return a == b
}

func unmatchedEqual(a, b []match.Unmatched) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Reason != b[i].Reason || !residentEqual(a[i].Resident, b[i].Resident) {
			return false
		}
	}
	return true
}
