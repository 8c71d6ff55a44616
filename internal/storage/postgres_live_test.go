package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tally/pkg/types"
)

const envPostgresDSN = "TALLY_TEST_POSTGRES_DSN"

// livePostgres attaches to the server named by TALLY_TEST_POSTGRES_DSN
// inside a fresh schema that is dropped on cleanup.
func livePostgres(t *testing.T) *Backend {
	t.Helper()
	dsn := os.Getenv(envPostgresDSN)
	if dsn == "" || testing.Short() {
		t.Skip(envPostgresDSN + " not set")
	}
	schema := "tally_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	_, err = admin.Exec("CREATE SCHEMA " + schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec("DROP SCHEMA " + schema + " CASCADE")
		_ = admin.Close()
	})

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{
		Backend: types.BackendPostgres,
		DSN:     fmt.Sprintf("%s%ssearch_path=%s", dsn, sep, schema),
	}))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

func TestPostgres_Live(t *testing.T) {
	ctx := context.Background()
	b := livePostgres(t)

	version, err := b.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, version)

	invoices := table(t, b, types.ResourceInvoices)
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i, status := range []string{types.InvoiceOpen, types.InvoiceOpen, types.InvoicePaid} {
		id, err := invoices.Set(ctx, "", &types.Invoice{
			Number:   fmt.Sprintf("INV-%03d", i),
			VendorID: "v1",
			Amount:   decimal.RequireFromString("99.90"),
			Currency: "EUR",
			Status:   status,
			IssuedAt: due.AddDate(0, -1, 0),
			DueAt:    due,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	open, err := invoices.Fetch(ctx, map[string]any{"status": types.InvoiceOpen})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	_, err = invoices.Set(ctx, "", &types.Invoice{
		Number: "INV-000", VendorID: "v1", Amount: decimal.RequireFromString("1"), Currency: "EUR",
		IssuedAt: due, DueAt: due,
	})
	assert.ErrorIs(t, err, types.ErrConflict)

	err = invoices.BulkDelete(ctx, []string{ids[0], "missing"})
	assert.ErrorIs(t, err, types.ErrNotFound)
	all, err := invoices.Fetch(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, invoices.BulkDelete(ctx, ids[:2]))
	all, err = invoices.Fetch(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, ids[2], all[0].RecordID())
}
