package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// goose keeps its dialect and filesystem in package state.
var gooseInitMu sync.Mutex

// migrate applies every pending embedded migration for d.
func migrate(ctx context.Context, db *sql.DB, d dialect) error {
	gooseInitMu.Lock()
	defer func() {
		goose.SetBaseFS(nil)
		gooseInitMu.Unlock()
	}()
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(d.goose); err != nil {
		return fmt.Errorf("%s: set goose dialect: %w", d.name, err)
	}
	if err := goose.UpContext(ctx, db, d.migrations); err != nil {
		return fmt.Errorf("%s: apply migrations: %w", d.name, err)
	}
	return nil
}

// schemaVersion reports the latest applied migration.
func schemaVersion(ctx context.Context, db *sql.DB, d dialect) (int64, error) {
	gooseInitMu.Lock()
	defer gooseInitMu.Unlock()
	if err := goose.SetDialect(d.goose); err != nil {
		return 0, fmt.Errorf("%s: set goose dialect: %w", d.name, err)
	}
	return goose.GetDBVersionContext(ctx, db)
}
