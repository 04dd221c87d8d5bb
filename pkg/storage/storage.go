// Package storage defines the persistence collaborator contract
// consumed by the framework's example applications: a typed store with
// change tracking, where Add/Update/Delete queue pending mutations and
// SaveChanges commits them all-or-nothing.
package storage

import (
	"context"
	"errors"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when an added entity's id is already taken.
	ErrConflict = errors.New("entity already exists")
)

// Store is the persistence contract for one entity type.
//
// Reads (GetByID, GetAll, GetAllWithRelated) see only committed state.
// Writes (Add, Update, Delete) queue pending mutations in call order;
// nothing is visible until SaveChanges commits the whole queue in one
// all-or-nothing transaction. A failed SaveChanges leaves committed
// state untouched and the queue cleared.
type Store[T any] interface {
	// GetByID returns the entity with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (T, error)

	// GetAll returns all committed entities, ordered by id.
	GetAll(ctx context.Context) ([]T, error)

	// GetAllWithRelated returns all committed entities with their
	// declared related entities resolved.
	GetAllWithRelated(ctx context.Context) ([]T, error)

	// Add queues an insert.
	Add(e T)

	// Update queues an update of an existing entity.
	Update(e T)

	// Delete queues a removal of an existing entity.
	Delete(e T)

	// SaveChanges commits all pending mutations atomically.
	SaveChanges(ctx context.Context) error
}

// Op is the kind of a pending mutation.
type Op int

const (
	OpAdd Op = iota
	OpUpdate
	OpDelete
)

// Mutation is one queued change-tracking entry.
type Mutation[T any] struct {
	Op     Op
	Entity T
}
