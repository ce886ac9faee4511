// Package redisstore provides a Redis-backed docstore implementation.
// Each collection is a Redis hash (one field per document, JSON-encoded)
// plus a pub/sub channel used purely as a change signal: subscribers
// re-read the full hash on every notification, preserving the snapshot
// semantics the engine expects.
package redisstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/homestead/lotmap/pkg/docstore"
	"github.com/homestead/lotmap/pkg/errors"
	"github.com/homestead/lotmap/pkg/logging"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int

	// Namespace prefixes every key. Defaults to "lotmap".
	Namespace string
}

// Store is a Redis-backed document store.
type Store struct {
	client    *redis.Client
	namespace string

	mu          sync.Mutex
	collections map[string]*collection
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Namespace == "" {
		opts.Namespace = "lotmap"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewConfigError("redisstore", "cannot reach redis at "+opts.Addr, err)
	}

	return &Store{
		client:      client,
		namespace:   opts.Namespace,
		collections: make(map[string]*collection),
	}, nil
}

// Collection returns the named collection handle.
func (s *Store) Collection(name string) docstore.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &collection{
			name:    name,
			key:     s.namespace + ":" + name,
			channel: s.namespace + ":" + name + ":changes",
			client:  s.client,
		}
		s.collections[name] = c
	}
	return c
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// collection is one Redis hash plus its change channel.
type collection struct {
	name    string
	key     string
	channel string
	client  *redis.Client
}

// Name returns the collection name.
func (c *collection) Name() string { return c.name }

// Snapshot reads the full hash.
func (c *collection) Snapshot(ctx context.Context) (docstore.Snapshot, error) {
	raw, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, errors.WrapWrite(c.name, "", "", err)
	}

	snap := make(docstore.Snapshot, 0, len(raw))
	for id, payload := range raw {
		var fields map[string]any
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			logging.Warn().
				Err(err).
				Str("collection", c.name).
				Str("id", id).
				Msg("Skipping undecodable document")
			continue
		}
		snap = append(snap, docstore.Document{ID: id, Fields: fields})
	}
	return snap, nil
}

// Get returns a single document by ID.
func (c *collection) Get(ctx context.Context, id string) (docstore.Document, error) {
	payload, err := c.client.HGet(ctx, c.key, id).Result()
	if err == redis.Nil {
		return docstore.Document{}, errors.NewNotFoundError(c.name, id)
	}
	if err != nil {
		return docstore.Document{}, err
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return docstore.Document{}, errors.WrapParse("json", c.key+"/"+id, err)
	}
	return docstore.Document{ID: id, Fields: fields}, nil
}

// Insert adds a new document under a generated ID.
func (c *collection) Insert(ctx context.Context, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := c.write(ctx, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

// Update merge-writes fields into an existing document.
func (c *collection) Update(ctx context.Context, id string, fields map[string]any) error {
	existing, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	for k, v := range fields {
		existing.Fields[k] = v
	}
	return c.write(ctx, id, existing.Fields)
}

// Set merge-writes fields into a document with a caller-chosen ID,
// creating it when absent.
func (c *collection) Set(ctx context.Context, id string, fields map[string]any) error {
	existing, err := c.Get(ctx, id)
	if err == nil {
		for k, v := range fields {
			existing.Fields[k] = v
		}
		fields = existing.Fields
	} else if !errors.IsNotFound(err) {
		return err
	}
	return c.write(ctx, id, fields)
}

// Subscribe delivers the current snapshot, then the full set again after
// every change notification.
func (c *collection) Subscribe(ctx context.Context) (<-chan docstore.Snapshot, error) {
	initial, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	pubsub := c.client.Subscribe(ctx, c.channel)
	out := make(chan docstore.Snapshot, 1)
	out <- initial

	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				snap, err := c.Snapshot(ctx)
				if err != nil {
					logging.Warn().
						Err(err).
						Str("collection", c.name).
						Msg("Snapshot re-read failed after change signal")
					continue
				}
				select {
				case out <- snap:
				default:
					select {
					case <-out:
					default:
					}
					select {
					case out <- snap:
					default:
					}
				}
			}
		}
	}()

	return out, nil
}

// write persists one document and signals the change.
func (c *collection) write(ctx context.Context, id string, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return errors.WrapParse("json", c.key+"/"+id, err)
	}
	if err := c.client.HSet(ctx, c.key, id, payload).Err(); err != nil {
		return errors.WrapWrite(c.name, id, "", err)
	}
	if err := c.client.Publish(ctx, c.channel, id).Err(); err != nil {
		// The write landed; a lost signal only delays the next snapshot.
		logging.Warn().
			Err(err).
			Str("collection", c.name).
			Msg("Change signal publish failed")
	}
	return nil
}
