// Package docstore abstracts the hosted document database behind the lotmap
// engine. The engine treats the database as an opaque collaborator: named
// collections that can be read, written, and subscribed to. Subscriptions
// have snapshot semantics: every change re-delivers the full current
// document set, never a delta, because that is what the hosted backends
// provide and what the engine's re-derivation model expects.
//
// Two implementations ship with the module: memory (in-process, used by
// tests and as the facade default) and redisstore (the adapter for a hosted
// deployment).
package docstore

import "context"

// Document is one raw record in a collection. Field shapes are checked at
// ingestion by pkg/types, not here.
type Document struct {
	ID     string
	Fields map[string]any
}

// Snapshot is the full current document set of a collection at one moment.
type Snapshot []Document

// Collection is one named document collection in the store.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Snapshot returns the full current document set.
	Snapshot(ctx context.Context) (Snapshot, error)

	// Get returns a single document by ID.
	Get(ctx context.Context, id string) (Document, error)

	// Insert adds a new document and returns its generated ID.
	Insert(ctx context.Context, fields map[string]any) (string, error)

	// Update merge-writes fields into an existing document. Fields not
	// present in the update are left untouched.
	Update(ctx context.Context, id string, fields map[string]any) error

	// Set merge-writes fields into a document with a caller-chosen ID,
	// creating it when absent. Used for singleton documents such as the
	// marker position map.
	Set(ctx context.Context, id string, fields map[string]any) error

	// Subscribe delivers the current snapshot immediately and the full
	// current set again after every change, until ctx is canceled. Bursts
	// may be conflated to the latest snapshot; none of the engine's
	// consumers assume they see every intermediate state.
	Subscribe(ctx context.Context) (<-chan Snapshot, error)
}

// Store is a handle to the document database.
type Store interface {
	// Collection returns the named collection, creating its local handle
	// on first use.
	Collection(name string) Collection

	// Close releases the store's resources.
	Close() error
}
