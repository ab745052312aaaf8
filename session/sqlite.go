package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteStore implements Store using SQLite, for single-node deployments
// that want conversations to survive restarts without extra infrastructure.
type SqliteStore struct {
	db        *sql.DB
	tableName string
}

var _ Store = (*SqliteStore)(nil)

// SqliteOptions configuration for the SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "sessions"
}

// NewSqliteStore opens (or creates) the database and its schema.
func NewSqliteStore(opts SqliteOptions) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "sessions"
	}

	store := &SqliteStore{
		db:        db,
		tableName: tableName,
	}

	if err := store.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SqliteStore) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// Save stores a session snapshot.
func (s *SqliteStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, snapshot, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query, snap.ID, string(data), time.Now()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load retrieves a session snapshot.
func (s *SqliteStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	query := fmt.Sprintf(`SELECT snapshot FROM %s WHERE id = ?`, s.tableName)

	var data string
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes a session snapshot.
func (s *SqliteStore) Delete(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
