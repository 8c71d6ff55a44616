package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func table(t *testing.T, b *Backend, name string) types.Table {
	t.Helper()
	tbl, err := b.GetTable(name)
	require.NoError(t, err)
	return tbl
}

func TestTable_SetCreatesWithDefaults(t *testing.T) {
	ctx := context.Background()
	employees := table(t, attached(t), types.ResourceEmployees)

	id, err := employees.Set(ctx, "", &types.Employee{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	assert.Len(t, id, 36)

	got, err := employees.Get(ctx, id)
	require.NoError(t, err)
	e := got.(*types.Employee)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, types.EmployeeActive, e.Status)
	assert.False(t, e.CreatedAt.IsZero())
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
}

func TestTable_SetUpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	employees := table(t, attached(t), types.ResourceEmployees)

	id, err := employees.Set(ctx, "", &types.Employee{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	first, err := employees.Get(ctx, id)
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	e := first.(*types.Employee)
	e.Title = "Analyst"
	_, err = employees.Set(ctx, id, e)
	require.NoError(t, err)

	got, err := employees.Get(ctx, id)
	require.NoError(t, err)
	updated := got.(*types.Employee)
	assert.Equal(t, "Analyst", updated.Title)
	assert.True(t, updated.CreatedAt.Equal(first.(*types.Employee).CreatedAt))
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
}

func TestTable_SetRejects(t *testing.T) {
	ctx := context.Background()
	b := attached(t)
	employees := table(t, b, types.ResourceEmployees)

	_, err := employees.Set(ctx, "", nil)
	assert.ErrorIs(t, err, types.ErrInvalidData)

	_, err = employees.Set(ctx, "", &types.Vendor{Name: "wrong table"})
	assert.ErrorIs(t, err, types.ErrInvalidData)

	_, err = employees.Set(ctx, "", &types.Employee{FirstName: "Ada"})
	assert.ErrorIs(t, err, types.ErrValidation)

	all, err := employees.Fetch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTable_UniqueInvoiceNumber(t *testing.T) {
	ctx := context.Background()
	invoices := table(t, attached(t), types.ResourceInvoices)

	_, err := invoices.Set(ctx, "", &types.Invoice{Number: "INV-1", Currency: "EUR", Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = invoices.Set(ctx, "", &types.Invoice{Number: "INV-1", Currency: "EUR", Amount: decimal.NewFromInt(20)})
	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestTable_GetAndDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	vendors := table(t, attached(t), types.ResourceVendors)

	_, err := vendors.Get(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = vendors.Get(ctx, "")
	assert.ErrorIs(t, err, types.ErrInvalidID)

	assert.ErrorIs(t, vendors.Delete(ctx, "missing"), types.ErrNotFound)

	id, err := vendors.Set(ctx, "", &types.Vendor{Name: "Acme"})
	require.NoError(t, err)
	require.NoError(t, vendors.Delete(ctx, id))
	_, err = vendors.Get(ctx, id)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestTable_Fetch(t *testing.T) {
	ctx := context.Background()
	jobs := table(t, attached(t), types.ResourceJobs)

	seed := []*types.Job{
		{Title: "Engineer", Department: "R&D"},
		{Title: "Accountant", Department: "Finance"},
		{Title: "Designer", Department: "R&D", Status: types.JobClosed},
	}
	var ids []string
	for _, j := range seed {
		id, err := jobs.Set(ctx, "", j)
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(time.Millisecond)
	}

	tests := []struct {
		name   string
		filter map[string]any
		want   []string
	}{
		{"all newest first", nil, []string{ids[2], ids[1], ids[0]}},
		{"equality", map[string]any{"department": "R&D"}, []string{ids[2], ids[0]}},
		{"two fields", map[string]any{"department": "R&D", "status": "open"}, []string{ids[0]}},
		{"in list", map[string]any{"title": []string{"Engineer", "Accountant"}}, []string{ids[1], ids[0]}},
		{"by id", map[string]any{"id": ids[1]}, []string{ids[1]}},
		{"limit", map[string]any{"limit": 2}, []string{ids[2], ids[1]}},
		{"offset only", map[string]any{"offset": "1"}, []string{ids[1], ids[0]}},
		{"limit and offset", map[string]any{"limit": "1", "offset": "1"}, []string{ids[1]}},
		{"no match", map[string]any{"department": "Legal"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := jobs.Fetch(ctx, tt.filter)
			require.NoError(t, err)
			gotIDs := make([]string, 0, len(got))
			for _, e := range got {
				gotIDs = append(gotIDs, e.RecordID())
			}
			assert.Equal(t, tt.want, gotIDs)
		})
	}
}

func TestTable_FetchRejectsUnknownField(t *testing.T) {
	ctx := context.Background()
	jobs := table(t, attached(t), types.ResourceJobs)

	for _, filter := range []map[string]any{
		{"salary": "x"},
		{"title') OR 1=1 --": "x"},
		{"limit": -1},
		{"offset": "ten"},
	} {
		_, err := jobs.Fetch(ctx, filter)
		assert.ErrorIs(t, err, types.ErrInvalidFilter, "filter %v", filter)
	}
}

func TestTable_BulkDelete(t *testing.T) {
	ctx := context.Background()
	vendors := table(t, attached(t), types.ResourceVendors)

	var ids []string
	for _, name := range []string{"Acme", "Globex", "Initech"} {
		id, err := vendors.Set(ctx, "", &types.Vendor{Name: name})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	t.Run("unknown id deletes nothing", func(t *testing.T) {
		err := vendors.BulkDelete(ctx, []string{ids[0], "missing"})
		assert.ErrorIs(t, err, types.ErrNotFound)
		all, err := vendors.Fetch(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("invalid input", func(t *testing.T) {
		assert.ErrorIs(t, vendors.BulkDelete(ctx, nil), types.ErrInvalidID)
		assert.ErrorIs(t, vendors.BulkDelete(ctx, []string{ids[0], ""}), types.ErrInvalidID)
	})

	t.Run("removes all listed", func(t *testing.T) {
		require.NoError(t, vendors.BulkDelete(ctx, []string{ids[0], ids[2], ids[0]}))
		all, err := vendors.Fetch(ctx, nil)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, ids[1], all[0].RecordID())
	})
}

func TestTable_DecimalRoundTrip(t *testing.T) {
	ctx := context.Background()
	salaries := table(t, attached(t), types.ResourceSalaries)

	amount := decimal.RequireFromString("4200.50")
	id, err := salaries.Set(ctx, "", &types.Salary{EmployeeID: "e1", Amount: amount, Currency: "USD"})
	require.NoError(t, err)

	got, err := salaries.Get(ctx, id)
	require.NoError(t, err)
	s := got.(*types.Salary)
	assert.True(t, amount.Equal(s.Amount))
	assert.Equal(t, types.PeriodMonthly, s.Period)

	found, err := salaries.Fetch(ctx, map[string]any{"amount": "4200.5"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
