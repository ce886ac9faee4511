// Package memory provides an in-process docstore implementation with
// snapshot fan-out. It backs the engine's tests and is the default store
// for the facade when no hosted backend is configured.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/homestead/lotmap/pkg/docstore"
	"github.com/homestead/lotmap/pkg/errors"
)

// Store is an in-memory document store.
type Store struct {
	mu          sync.Mutex
	collections map[string]*collection
	closed      bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// Collection returns the named collection, creating it on first use.
func (s *Store) Collection(name string) docstore.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &collection{
			name:      name,
			documents: make(map[string]map[string]any),
		}
		s.collections[name] = c
	}
	return c
}

// Close closes every subscriber channel.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, c := range s.collections {
		c.closeSubscribers()
	}
	return nil
}

// collection holds one named document set plus its subscribers.
type collection struct {
	name string

	mu          sync.Mutex
	documents   map[string]map[string]any
	subscribers []chan docstore.Snapshot
	closed      bool
}

// Name returns the collection name.
func (c *collection) Name() string { return c.name }

// Snapshot returns a copy of the full current document set.
func (c *collection) Snapshot(_ context.Context) (docstore.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(), nil
}

// Get returns a single document by ID.
func (c *collection) Get(_ context.Context, id string) (docstore.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields, ok := c.documents[id]
	if !ok {
		return docstore.Document{}, errors.NewNotFoundError(c.name, id)
	}
	return docstore.Document{ID: id, Fields: maps.Clone(fields)}, nil
}

// Insert adds a new document under a generated ID.
func (c *collection) Insert(_ context.Context, fields map[string]any) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", errors.ErrStoreClosed
	}
	id := uuid.NewString()
	c.documents[id] = maps.Clone(fields)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return id, nil
}

// Update merge-writes fields into an existing document.
func (c *collection) Update(_ context.Context, id string, fields map[string]any) error {
	c.mu.Lock()
	existing, ok := c.documents[id]
	if !ok {
		c.mu.Unlock()
		return errors.NewNotFoundError(c.name, id)
	}
	maps.Copy(existing, fields)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return nil
}

// Set merge-writes fields into a document with a caller-chosen ID,
// creating it when absent.
func (c *collection) Set(_ context.Context, id string, fields map[string]any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.ErrStoreClosed
	}
	existing, ok := c.documents[id]
	if !ok {
		existing = make(map[string]any, len(fields))
		c.documents[id] = existing
	}
	maps.Copy(existing, fields)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return nil
}

// Subscribe registers a snapshot channel. The current snapshot is delivered
// immediately; the subscription ends when ctx is canceled.
func (c *collection) Subscribe(ctx context.Context) (<-chan docstore.Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.ErrStoreClosed
	}
	ch := make(chan docstore.Snapshot, 1)
	ch <- c.snapshotLocked()
	c.subscribers = append(c.subscribers, ch)
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.unsubscribe(ch)
	}()

	return ch, nil
}

// snapshotLocked copies the document set. Callers hold c.mu.
func (c *collection) snapshotLocked() docstore.Snapshot {
	snap := make(docstore.Snapshot, 0, len(c.documents))
	for id, fields := range c.documents {
		snap = append(snap, docstore.Document{ID: id, Fields: maps.Clone(fields)})
	}
	return snap
}

// publish conflates bursts: a slow subscriber keeps only the latest
// snapshot, which is safe because snapshots carry the full set. The
// lock is held across the sends so a concurrent unsubscribe cannot
// close a channel mid-send; every send is non-blocking.
func (c *collection) publish(snap docstore.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (c *collection) unsubscribe(ch chan docstore.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, sub := range c.subscribers {
		if sub == ch {
			c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (c *collection) closeSubscribers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, sub := range c.subscribers {
		close(sub)
	}
	c.subscribers = nil
}
