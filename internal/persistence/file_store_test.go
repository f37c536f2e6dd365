package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/dialogue-translator/internal/lookup"
)

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	got, err := store.ReadTemp(ctx, DefaultTempKey)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.WriteTemp(ctx, DefaultTempKey, lookup.Table{{Pattern: "ミ#", Replacement: "米"}}))

	data, err := os.ReadFile(filepath.Join(dir, DefaultTempKey))
	require.NoError(t, err)
	assert.JSONEq(t, `[["ミ#","米","temp"]]`, string(data))

	got, err = store.ReadTemp(ctx, DefaultTempKey)
	require.NoError(t, err)
	assert.Equal(t, lookup.Table{{Pattern: "ミ#", Replacement: "米", Tag: lookup.TagTemp}}, got)

	// no temp files left behind
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFileStore_EmptyAndInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.json"), []byte("\n"), 0644))
	got, err := store.ReadTemp(ctx, "empty.json")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"x":1}`), 0644))
	_, err = store.ReadTemp(ctx, "bad.json")
	assert.Error(t, err)
}

func TestNewFileStore_RequiresDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}
