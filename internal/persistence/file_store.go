package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MimeLyc/dialogue-translator/internal/lookup"
)

// FileStore keeps each temp segment in a JSON file named after its key.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key))
}

// ReadTemp returns an empty table when the file does not exist yet.
func (s *FileStore) ReadTemp(_ context.Context, key string) (lookup.Table, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return lookup.Table{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return lookup.Table{}, nil
	}

	var ret lookup.Table
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	return ret, nil
}

// WriteTemp rewrites the file atomically through a temp file and rename.
func (s *FileStore) WriteTemp(_ context.Context, key string, entries lookup.Table) error {
	data, err := json.MarshalIndent(markTemp(entries), "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(key)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

var _ TempStore = (*FileStore)(nil)
