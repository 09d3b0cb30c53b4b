package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	last_accessed_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS workspace_state (
	workspace_id TEXT NOT NULL,
	key TEXT NOT NULL,
	value BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (workspace_id, key),
	FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
);
`

// SQLiteStore implements domain.KeyValueStore in a SQLite database shared by
// every workspace; rows are scoped by workspace ID.
type SQLiteStore struct {
	db          *sql.DB
	workspaceID string
}

// OpenSQLite creates or opens the database at dbPath and registers workspace.
func OpenSQLite(ctx context.Context, dbPath, workspace string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s := &SQLiteStore{db: db, workspaceID: WorkspaceID(workspace)}
	if err := s.ensureWorkspace(ctx, workspace); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// ensureWorkspace registers the workspace if it doesn't exist, or updates
// last_accessed_at if it does.
func (s *SQLiteStore) ensureWorkspace(ctx context.Context, workspace string) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workspaces (id, path, name, created_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_accessed_at = ?
	`, s.workspaceID, workspace, filepath.Base(workspace), now, now, now)
	if err != nil {
		return fmt.Errorf("ensure workspace: %w", err)
	}
	return nil
}

// WorkspaceID returns the ID rows are scoped by.
func (s *SQLiteStore) WorkspaceID() string {
	return s.workspaceID
}

// Get returns the value stored for key in this workspace.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM workspace_state WHERE workspace_id = ? AND key = ?
	`, s.workspaceID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the value stored for key in this workspace.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workspace_state (workspace_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(workspace_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.workspaceID, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
