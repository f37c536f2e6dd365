package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MimeLyc/dialogue-translator/internal/lookup"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore keeps temp segments and batch history in one sqlite file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// ReadTemp returns the segment stored under key in insertion order.
func (s *SQLiteStore) ReadTemp(ctx context.Context, key string) (lookup.Table, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT pattern, replacement, tag
		 FROM temp_entries
		 WHERE cache_key = ?
		 ORDER BY position ASC`,
		key,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make(lookup.Table, 0)
	for rows.Next() {
		var item lookup.Entry
		var tag string
		if err := rows.Scan(&item.Pattern, &item.Replacement, &tag); err != nil {
			return nil, err
		}
		item.Tag = lookup.Tag(tag)
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// WriteTemp replaces the segment stored under key in one transaction.
func (s *SQLiteStore) WriteTemp(ctx context.Context, key string, entries lookup.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM temp_entries WHERE cache_key = ?`, key); err != nil {
		return err
	}
	for i, e := range markTemp(entries) {
		if _, err = tx.ExecContext(
			ctx,
			`INSERT INTO temp_entries (cache_key, position, pattern, replacement, tag) VALUES (?, ?, ?, ?, ?)`,
			key, i, e.Pattern, e.Replacement, string(e.Tag),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) RecordBatch(ctx context.Context, rec BatchRecord) error {
	updatedAt := rec.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO batches (path, output, lines, failed, skipped, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			output=excluded.output,
			lines=excluded.lines,
			failed=excluded.failed,
			skipped=excluded.skipped,
			updated_at=excluded.updated_at`,
		rec.Path,
		rec.Output,
		rec.Lines,
		rec.Failed,
		rec.Skipped,
		updatedAt,
	)
	return err
}

func (s *SQLiteStore) LoadBatches(ctx context.Context) ([]BatchRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT path, output, lines, failed, skipped, updated_at
		 FROM batches
		 ORDER BY updated_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]BatchRecord, 0)
	for rows.Next() {
		var item BatchRecord
		if err := rows.Scan(&item.Path, &item.Output, &item.Lines, &item.Failed, &item.Skipped, &item.UpdatedAt); err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

var (
	_ TempStore     = (*SQLiteStore)(nil)
	_ BatchRecorder = (*SQLiteStore)(nil)
)
