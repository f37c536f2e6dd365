package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		path, ext, want string
	}{
		{"inbox/a.jsonl", ".translated.jsonl", filepath.Join("inbox", "a.translated.jsonl")},
		{"inbox/a.jsonl", "json", filepath.Join("inbox", "a.json")},
		{"inbox/noext", ".jsonl", filepath.Join("inbox", "noext.jsonl")},
		{"inbox/.hidden", "jsonl", filepath.Join("inbox", ".hidden.jsonl")},
		{"", ".jsonl", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReplaceExt(tt.path, tt.ext), tt.path)
	}
}

func TestFindRecentAfter(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "old.jsonl")
	newFile := filepath.Join(dir, "sub", "new.jsonl")
	require.NoError(t, os.MkdirAll(filepath.Dir(newFile), 0o755))
	require.NoError(t, os.WriteFile(oldFile, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(newFile, []byte("{}"), 0o644))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, past, past))

	got, err := FindRecentAfter(dir, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{newFile}, got)

	got, err = FindRecentAfter(dir, time.Time{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{oldFile, newFile}, got)

	_, err = FindRecentAfter(filepath.Join(dir, "missing"), time.Time{})
	assert.Error(t, err)
}
