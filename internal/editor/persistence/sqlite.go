package persistence

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed migrations/001_init_documents.sql
var initMigration string

// ============================================================
// SQLite Store
// ============================================================

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Init запускает миграции.
func (s *SQLiteStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, initMigration); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, path string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO documents (path, payload, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(path) DO UPDATE SET
            payload = excluded.payload,
            updated_at = excluded.updated_at
    `, path, payload)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, path string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT payload
        FROM documents
        WHERE path = ?
    `, path)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return payload, nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
