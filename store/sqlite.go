package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteDriver = "sqlite"
	sqliteDSNOpt = "?_pragma=busy_timeout(3000)&_pragma=journal_mode(WAL)"
)

// SQLiteStore keeps session markers for many spec directories in a single
// database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}
	db, err := sql.Open(sqliteDriver, path+sqliteDSNOpt)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS session_markers (
	spec_dir   TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Get returns the identifier stored for specDir.
func (s *SQLiteStore) Get(ctx context.Context, specDir string) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id FROM session_markers WHERE spec_dir = ?`, key(specDir)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get session: %w", err)
	}
	return id, id != "", nil
}

// Put upserts id for specDir.
func (s *SQLiteStore) Put(ctx context.Context, specDir, id string) error {
	if specDir == "" {
		return ErrNoSpecDir
	}
	const q = `
INSERT INTO session_markers (spec_dir, session_id, updated_at) VALUES (?, ?, ?)
ON CONFLICT(spec_dir) DO UPDATE SET
	session_id = excluded.session_id,
	updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, q, key(specDir), id, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("store: put session: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// key normalizes a spec directory so relative and absolute spellings of the
// same path share a row.
func key(specDir string) string {
	if abs, err := filepath.Abs(specDir); err == nil {
		return abs
	}
	return filepath.Clean(specDir)
}

var _ SessionStore = (*SQLiteStore)(nil)
