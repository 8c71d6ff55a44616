package types

import (
	"context"
	"errors"
)

// Table provides uniform CRUD operations for a single resource.
// Every value passed to or returned from a Table is the Entity type
// registered for that resource (see NewEntity).
type Table interface {
	// Get retrieves the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Get(ctx context.Context, id string) (Entity, error)

	// Set creates or updates an entity. When id is empty and the entity
	// carries no ID a new UUID v7 is generated. Returns the ID used.
	Set(ctx context.Context, id string, data Entity) (string, error)

	// Delete removes the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Delete(ctx context.Context, id string) error

	// Fetch returns all entities matching the filter. Keys are field names
	// compared for equality; "limit" and "offset" page the result. An empty
	// filter returns every entity, newest first.
	Fetch(ctx context.Context, filter map[string]any) ([]Entity, error)

	// BulkDelete removes every listed entity in one transaction. Either all
	// ids are removed or none are; an unknown id yields ErrNotFound.
	BulkDelete(ctx context.Context, ids []string) error
}

// Table operation errors.
var (
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrInvalidSort   = errors.New("invalid sort rule")
)
