package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func sqliteConfig(t *testing.T) types.Config {
	t.Helper()
	return types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}
}

// attached returns a backend attached to a fresh SQLite database.
func attached(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	if err := b.Attach(sqliteConfig(t)); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	config := sqliteConfig(t)

	b := NewBackend()
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	dbPath := filepath.Join(config.DataDir, DatabaseFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("%s not created", DatabaseFile)
	}

	if err := b.Attach(config); !errors.Is(err, types.ErrAlreadyAttached) {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config types.Config
		want   error
	}{
		{"empty backend", types.Config{}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "oracle"}, types.ErrBackendUnknown},
		{"postgres without dsn", types.Config{Backend: types.BackendPostgres}, types.ErrDSNRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBackend()
			if err := b.Attach(tt.config); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	if err := b.Attach(sqliteConfig(t)); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}
	if _, err := b.GetTable(types.ResourceEmployees); !errors.Is(err, types.ErrCabinetDetached) {
		t.Errorf("expected ErrCabinetDetached, got %v", err)
	}
	if err := b.Ping(context.Background()); !errors.Is(err, types.ErrCabinetDetached) {
		t.Errorf("expected ErrCabinetDetached from Ping, got %v", err)
	}
}

func TestBackend_GetTable(t *testing.T) {
	b := attached(t)

	for _, name := range types.StandardResourceNames {
		table, err := b.GetTable(name)
		if err != nil {
			t.Errorf("GetTable(%q) failed: %v", name, err)
			continue
		}
		if table == nil {
			t.Errorf("GetTable(%q) returned nil", name)
		}
	}

	if _, err := b.GetTable("planets"); !errors.Is(err, types.ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestBackend_SchemaVersion(t *testing.T) {
	b := attached(t)

	v, err := b.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != 2 {
		t.Errorf("expected schema version 2, got %d", v)
	}
}

func TestBackend_PersistsAcrossAttach(t *testing.T) {
	ctx := context.Background()
	config := sqliteConfig(t)

	b := NewBackend()
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	table, _ := b.GetTable(types.ResourceVendors)
	id, err := table.Set(ctx, "", &types.Vendor{Name: "Acme"})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}

	if err := b.Attach(config); err != nil {
		t.Fatalf("re-Attach failed: %v", err)
	}
	defer b.Detach()
	table, _ = b.GetTable(types.ResourceVendors)
	got, err := table.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get after re-attach failed: %v", err)
	}
	if v := got.(*types.Vendor); v.Name != "Acme" {
		t.Errorf("expected Acme, got %q", v.Name)
	}
}

func TestDialectDSN(t *testing.T) {
	dsn := sqliteDialect.dsn(types.Config{Backend: types.BackendSQLite, DataDir: "/tmp/x"})
	for _, want := range []string{"file:/tmp/x/tally.db", "_pragma=busy_timeout(5000)", "_pragma=journal_mode(WAL)"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn %q missing %q", dsn, want)
		}
	}

	pg := postgresDialect.dsn(types.Config{Backend: types.BackendPostgres, DSN: "postgres://u@h/db"})
	if pg != "postgres://u@h/db" {
		t.Errorf("unexpected postgres dsn %q", pg)
	}
}
