package syncengine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agentstation/utc"

	"github.com/homestead/lotmap/pkg/errors"
	"github.com/homestead/lotmap/pkg/logging"
	"github.com/homestead/lotmap/pkg/types"
)

// DefaultDebounce is the quiet period used to coalesce bursts of
// resident-stream updates into one run.
const DefaultDebounce = 250 * time.Millisecond

// Writer is the single store capability the engine needs: merge-writing
// fields into an existing pin document.
type Writer interface {
	Name() string
	Update(ctx context.Context, id string, fields map[string]any) error
}

// Stats counts the engine's write activity.
type Stats struct {
	Runs              int64
	TriggersCoalesced int64 // triggers dropped by the single-flight guard
	WritesApplied     int64
	WritesFailed      int64
}

// Engine owns the sync cursor and the single-flight guard. Its trigger is
// wired solely to the resident stream; pin-stream changes must never reach
// Trigger, or the bidirectional loop the cursor guards against comes back.
type Engine struct {
	writer    Writer
	residents func() []types.Resident
	pins      func() []types.Pin
	debounce  time.Duration

	inFlight atomic.Bool

	mu     sync.Mutex
	cursor Cursor
	timer  *time.Timer

	runs      atomic.Int64
	coalesced atomic.Int64
	applied   atomic.Int64
	failed    atomic.Int64
}

// Option configures the Engine.
type Option func(*Engine)

// WithDebounce overrides the debounce quiet period.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.debounce = d
		}
	}
}

// New creates an Engine. residents and pins supply the current snapshot of
// each stream at run time; writer applies pin updates.
func New(writer Writer, residents func() []types.Resident, pins func() []types.Pin, opts ...Option) *Engine {
	e := &Engine{
		writer:    writer,
		residents: residents,
		pins:      pins,
		debounce:  DefaultDebounce,
		cursor:    make(Cursor),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Trigger schedules a run after the debounce quiet period. Each call
// cancels and restarts the pending timer, so a burst of resident updates
// collapses into one run.
func (e *Engine) Trigger(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, func() {
		e.Run(ctx)
	})
}

// Run executes one sync pass. Re-entrant calls while a run is active are
// dropped, not queued: the next resident-stream change re-triggers anyway.
func (e *Engine) Run(ctx context.Context) {
	if !e.inFlight.CompareAndSwap(false, true) {
		e.coalesced.Add(1)
		logging.Debug().Msg("Sync run already in flight, trigger dropped")
		return
	}
	defer e.inFlight.Store(false)
	e.runs.Add(1)

	residents := e.residents()
	pins := e.pins()

	e.mu.Lock()
	cursor := e.cursor.Clone()
	e.mu.Unlock()

	writes, next := Reconcile(residents, pins, cursor)

	// Record the keys that settled without a write before applying the
	// rest; a failed write must not lose them.
	e.mu.Lock()
	e.cursor = next
	e.mu.Unlock()

	if len(writes) == 0 {
		return
	}

	// Per-resident writes run concurrently; a failure for one key never
	// aborts its siblings. The single-flight guard above keeps the cursor
	// safe while writes are outstanding.
	var wg sync.WaitGroup
	for _, write := range writes {
		wg.Add(1)
		go func(w PinWrite) {
			defer wg.Done()
			e.apply(ctx, w)
		}(write)
	}
	wg.Wait()

	logging.Info().
		Int("writes", len(writes)).
		Int64("failed", e.failed.Load()).
		Msg("Sync run completed")
}

// apply performs one pin write and records the cursor on success. On
// failure the key's cursor stays unset so the next run retries it.
func (e *Engine) apply(ctx context.Context, w PinWrite) {
	now := utc.Now()
	err := e.writer.Update(ctx, w.PinID, map[string]any{
		"isAvailable": w.Desired,
		"updatedAt":   now.String(),
	})
	if err != nil {
		e.failed.Add(1)
		logging.Err(errors.WrapWrite(e.writer.Name(), w.PinID, w.Key.String(), err)).
			Msg("Sync write failed, will retry on next trigger")
		return
	}

	e.applied.Add(1)
	e.mu.Lock()
	e.cursor[w.Key] = w.Status
	e.mu.Unlock()

	logging.Debug().
		Str("pin_id", w.PinID).
		Str("key", w.Key.String()).
		Bool("is_available", w.Desired).
		Msg("Pin availability synced")
}

// CursorStatus returns the last synced status for a key, if any.
func (e *Engine) CursorStatus(key types.Key) (types.AvailabilityStatus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	status, ok := e.cursor[key]
	return status, ok
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Runs:              e.runs.Load(),
		TriggersCoalesced: e.coalesced.Load(),
		WritesApplied:     e.applied.Load(),
		WritesFailed:      e.failed.Load(),
	}
}

// Stop cancels a pending debounce timer. An in-flight run completes on its
// own; the only cancellable operation is the timer.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
