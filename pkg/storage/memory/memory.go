// Package memory provides an in-memory implementation of the storage
// contract for testing and lightweight deployments. Entities live in a
// map guarded by a read-write lock and are lost on process restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cmayhew/weft/pkg/storage"
)

// EnrichFunc resolves an entity's related entities. It receives a copy
// of the committed entity and returns the enriched form.
type EnrichFunc[T any] func(ctx context.Context, e T) (T, error)

// Store is an in-memory change-tracking store.
type Store[T any] struct {
	id     func(T) int64
	enrich EnrichFunc[T]

	mu      sync.RWMutex
	rows    map[int64]T
	pending []storage.Mutation[T]
}

// Compile-time check against the storage contract.
var _ storage.Store[struct{}] = (*Store[struct{}])(nil)

// New creates a store for entities identified by the given id function.
func New[T any](id func(T) int64) *Store[T] {
	return &Store[T]{
		id:   id,
		rows: make(map[int64]T),
	}
}

// WithEnrich sets the related-entity resolver used by
// GetAllWithRelated and returns the store.
func (s *Store[T]) WithEnrich(fn EnrichFunc[T]) *Store[T] {
	s.enrich = fn
	return s
}

// GetByID returns the committed entity with the given id.
func (s *Store[T]) GetByID(_ context.Context, id int64) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.rows[id]
	if !ok {
		var zero T
		return zero, storage.ErrNotFound
	}
	return e, nil
}

// GetAll returns all committed entities ordered by id.
func (s *Store[T]) GetAll(_ context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.rows))
	for _, e := range s.rows {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return s.id(out[i]) < s.id(out[j]) })
	return out, nil
}

// GetAllWithRelated returns all committed entities, passing each
// through the enrich function when one is configured.
func (s *Store[T]) GetAllWithRelated(ctx context.Context) ([]T, error) {
	all, err := s.GetAll(ctx)
	if err != nil || s.enrich == nil {
		return all, err
	}

	for i, e := range all {
		enriched, err := s.enrich(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("enriching entity %d: %w", s.id(e), err)
		}
		all[i] = enriched
	}
	return all, nil
}

// Add queues an insert.
func (s *Store[T]) Add(e T) {
	s.queue(storage.Mutation[T]{Op: storage.OpAdd, Entity: e})
}

// Update queues an update.
func (s *Store[T]) Update(e T) {
	s.queue(storage.Mutation[T]{Op: storage.OpUpdate, Entity: e})
}

// Delete queues a removal.
func (s *Store[T]) Delete(e T) {
	s.queue(storage.Mutation[T]{Op: storage.OpDelete, Entity: e})
}

func (s *Store[T]) queue(m storage.Mutation[T]) {
	s.mu.Lock()
	s.pending = append(s.pending, m)
	s.mu.Unlock()
}

// SaveChanges applies all pending mutations under one lock. Every
// mutation is validated before any is applied, so a conflict or a
// missing entity leaves committed state untouched. The pending queue
// is cleared either way.
func (s *Store[T]) SaveChanges(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pending
	s.pending = nil

	// Validate against a scratch view of the committed ids so that
	// mutations within one batch see each other.
	ids := make(map[int64]bool, len(s.rows))
	for id := range s.rows {
		ids[id] = true
	}
	for _, m := range pending {
		id := s.id(m.Entity)
		switch m.Op {
		case storage.OpAdd:
			if ids[id] {
				return fmt.Errorf("adding entity %d: %w", id, storage.ErrConflict)
			}
			ids[id] = true
		case storage.OpUpdate:
			if !ids[id] {
				return fmt.Errorf("updating entity %d: %w", id, storage.ErrNotFound)
			}
		case storage.OpDelete:
			if !ids[id] {
				return fmt.Errorf("deleting entity %d: %w", id, storage.ErrNotFound)
			}
			delete(ids, id)
		}
	}

	for _, m := range pending {
		id := s.id(m.Entity)
		switch m.Op {
		case storage.OpAdd, storage.OpUpdate:
			s.rows[id] = m.Entity
		case storage.OpDelete:
			delete(s.rows, id)
		}
	}
	return nil
}

// Len returns the number of committed entities.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
