package types

import "errors"

// Cabinet defines the interface for backend-agnostic storage access.
// Callers attach to a backend, access tables by resource name, and detach
// when done.
type Cabinet interface {
	// GetTable returns the Table for the given resource name.
	// Returns ErrTableNotFound if the name is not a standard resource.
	GetTable(name string) (Table, error)

	// Attach connects the Cabinet to the backend described by config and
	// applies pending schema migrations. Returns ErrAlreadyAttached if
	// called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, GetTable returns ErrCabinetDetached.
	Detach() error
}

// Cabinet lifecycle errors.
var (
	ErrCabinetDetached = errors.New("cabinet is detached")
	ErrAlreadyAttached = errors.New("cabinet is already attached")
	ErrTableNotFound   = errors.New("table not found")
)
