// Package memory provides an in-process implementation of persistence.Store.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/example/orientation-hub/internal/persistence"
)

// Store keeps documents in memory, preserving insertion order per collection.
type Store struct {
	mu          sync.RWMutex
	collections map[persistence.Collection][]persistence.Record
	newID       func() string
}

// Option customises a Store.
type Option func(*Store)

// WithIDGenerator overrides the random UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[persistence.Collection][]persistence.Record),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Find returns clones of every matching record in insertion order.
func (s *Store) Find(ctx context.Context, collection persistence.Collection, filter persistence.Fields) ([]persistence.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := persistence.ValidateCollection(collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.Record
	for _, record := range s.collections[collection] {
		if record.Fields.Matches(filter) {
			out = append(out, cloneRecord(record))
		}
	}
	return out, nil
}

// Insert appends a new document.
func (s *Store) Insert(ctx context.Context, collection persistence.Collection, fields persistence.Fields) (persistence.Record, error) {
	if err := ctx.Err(); err != nil {
		return persistence.Record{}, err
	}
	if err := persistence.ValidateCollection(collection); err != nil {
		return persistence.Record{}, err
	}

	record := persistence.Record{ID: s.newID(), Fields: fields.Clone()}
	if record.Fields == nil {
		record.Fields = persistence.Fields{}
	}

	s.mu.Lock()
	s.collections[collection] = append(s.collections[collection], record)
	s.mu.Unlock()

	return cloneRecord(record), nil
}

// Update applies set to the record when expected still holds.
func (s *Store) Update(ctx context.Context, collection persistence.Collection, id string, expected, set persistence.Fields) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := persistence.ValidateCollection(collection); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.collections[collection]
	for i := range records {
		if records[i].ID != id {
			continue
		}
		if !records[i].Fields.Matches(expected) {
			return false, nil
		}
		for k, v := range set {
			records[i].Fields[k] = v
		}
		return true, nil
	}
	return false, persistence.ErrNotFound
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close releases resources held by the store. No-op for the in-memory implementation.
func (s *Store) Close() error {
	return nil
}

func cloneRecord(record persistence.Record) persistence.Record {
	return persistence.Record{ID: record.ID, Fields: record.Fields.Clone()}
}
