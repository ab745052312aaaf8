package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool defines the interface for a database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using PostgreSQL, for deployments that
// share sessions across processes.
type PostgresStore struct {
	pool      DBPool
	tableName string
}

var _ Store = (*PostgresStore)(nil)

// PostgresOptions configuration for the Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "sessions"
}

// NewPostgresStore creates a Postgres session store and its schema.
func NewPostgresStore(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	store := NewPostgresStoreWithPool(pool, opts.TableName)
	if err := store.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreWithPool creates a Postgres session store with an existing
// pool. Useful for testing with mocks.
func NewPostgresStoreWithPool(pool DBPool, tableName string) *PostgresStore {
	if tableName == "" {
		tableName = "sessions"
	}
	return &PostgresStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			snapshot JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Save stores a session snapshot.
func (s *PostgresStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, snapshot, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			snapshot = EXCLUDED.snapshot,
			updated_at = EXCLUDED.updated_at
	`, s.tableName)

	if _, err := s.pool.Exec(ctx, query, snap.ID, data, time.Now()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load retrieves a session snapshot.
func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	query := fmt.Sprintf(`SELECT snapshot FROM %s WHERE id = $1`, s.tableName)

	var data []byte
	err := s.pool.QueryRow(ctx, query, sessionID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes a session snapshot.
func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
