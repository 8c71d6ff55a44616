package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func TestReadJSONL_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendors.jsonl")
	content := strings.Join([]string{
		`{"id":"v1","name":"Acme"}`,
		``,
		`{not json`,
		`{"id":"v2","name":"Globex"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, skipped, err := readJSONL(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, skipped)
}

func TestWriteJSONL_ReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	require.NoError(t, writeJSONL(path, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := attached(t)
	offices := table(t, src, types.ResourceOffices)

	for _, name := range []string{"Berlin HQ", "Lisbon"} {
		_, err := offices.Set(ctx, "", &types.Office{Name: name, City: name, Country: "EU"})
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "offices.jsonl")
	n, err := Export(ctx, src, types.ResourceOffices, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("garbage\n{\"id\":\"o9\"}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	dst := attached(t)
	res, err := Import(ctx, dst, types.ResourceOffices, path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 2, res.Skipped)

	want, err := offices.Fetch(ctx, nil)
	require.NoError(t, err)
	got, err := table(t, dst, types.ResourceOffices).Fetch(ctx, nil)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i].(*types.Office), got[i].(*types.Office)
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Name, g.Name)
		assert.True(t, w.CreatedAt.Equal(g.CreatedAt))
	}
}

func TestImport_UnknownResource(t *testing.T) {
	_, err := Import(context.Background(), attached(t), "planets", "nowhere.jsonl")
	assert.ErrorIs(t, err, types.ErrTableNotFound)
}
