// Package storage exposes the relational Cabinet backends while keeping
// their implementation internal.
//
// Example:
//
//	cab := storage.NewBackend(nil)
//	err := cab.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".tally-db",
//	})
//	defer cab.Detach()
package storage

import (
	"context"

	"github.com/mesh-intelligence/tally/internal/storage"
	"github.com/mesh-intelligence/tally/pkg/logger"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Backend is an attachable Cabinet with health and schema introspection.
type Backend interface {
	types.Cabinet
	Ping(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int64, error)
}

// NewBackend creates a detached backend. The dialect is chosen by the
// Config passed to Attach.
func NewBackend(l logger.Logger) Backend {
	if l == nil {
		l = logger.Discard()
	}
	return storage.NewBackend(storage.WithLogger(l))
}

// ImportResult counts the outcome of Import.
type ImportResult = storage.ImportResult

// Export writes every entity of resource to a JSONL file.
func Export(ctx context.Context, c types.Cabinet, resource, path string) (int, error) {
	return storage.Export(ctx, c, resource, path)
}

// Import upserts the records of a JSONL file into resource.
func Import(ctx context.Context, c types.Cabinet, resource, path string) (ImportResult, error) {
	return storage.Import(ctx, c, resource, path)
}
