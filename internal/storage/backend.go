// Package storage implements the relational Cabinet backends. Each
// resource is one table of JSON documents keyed by id; SQLite and Postgres
// share the table code and differ only in dialect.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/tally/pkg/logger"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Backend implements types.Cabinet over database/sql.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dialect  dialect
	db       *sql.DB
	tables   map[string]*Table
	log      logger.Logger
}

var _ types.Cabinet = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Backend) { b.log = l }
}

// NewBackend creates a detached backend. Call Attach to connect.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		tables: make(map[string]*Table),
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetTable returns the Table for a standard resource name.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCabinetDetached
	}
	table, ok := b.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrTableNotFound, name)
	}
	return table, nil
}

// Attach opens the database described by config and applies pending
// migrations. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	d, err := dialectFor(config.Backend)
	if err != nil {
		return err
	}

	if d.name == types.BackendSQLite {
		if config.DataDir == "" {
			config.DataDir = "."
		}
		if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
	}

	db, err := sql.Open(d.driver, d.dsn(config))
	if err != nil {
		return fmt.Errorf("%s: open: %w", d.name, err)
	}
	if d.name == types.BackendSQLite {
		// A single connection serializes every statement.
		db.SetMaxOpenConns(1)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("%s: ping: %w", d.name, err)
	}
	if err := migrate(ctx, db, d); err != nil {
		db.Close()
		return err
	}

	b.attachDB(config, d, db)
	b.log.Info("storage attached", "backend", d.name, "data_dir", config.DataDir)
	return nil
}

// attachDB installs an open handle and builds the table accessors.
// The caller must hold b.mu.
func (b *Backend) attachDB(config types.Config, d dialect, db *sql.DB) {
	b.config = config
	b.dialect = d
	b.db = db
	b.attached = true
	for _, name := range types.StandardResourceNames {
		b.tables[name] = newTable(b, name)
	}
}

// Detach closes the database. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	b.tables = make(map[string]*Table)
	b.log.Info("storage detached", "backend", b.dialect.name)
	return nil
}

// Ping checks that the database is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	db, _, err := b.handle()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// SchemaVersion returns the latest applied migration version.
func (b *Backend) SchemaVersion(ctx context.Context) (int64, error) {
	db, d, err := b.handle()
	if err != nil {
		return 0, err
	}
	return schemaVersion(ctx, db, d)
}

// Config returns the configuration the backend was attached with.
func (b *Backend) Config() types.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// handle returns the open database and its dialect.
func (b *Backend) handle() (*sql.DB, dialect, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, dialect{}, types.ErrCabinetDetached
	}
	return b.db, b.dialect, nil
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
