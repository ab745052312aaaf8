package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when no snapshot exists for a session id.
var ErrNotFound = errors.New("session not found")

// Store persists session snapshots so conversations survive process
// restarts. Implementations: MemoryStore, SqliteStore, PostgresStore,
// RedisStore.
type Store interface {
	// Save stores a snapshot, replacing any previous one for the session.
	Save(ctx context.Context, snap *Snapshot) error

	// Load retrieves the snapshot for a session id, or ErrNotFound.
	Load(ctx context.Context, sessionID string) (*Snapshot, error)

	// Delete removes the snapshot for a session id. Deleting an absent
	// session is not an error.
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is an in-process Store, the default when no persistence is
// configured.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]*Snapshot),
	}
}

// Save stores a snapshot.
func (m *MemoryStore) Save(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.ID] = snap
	return nil
}

// Load retrieves a snapshot.
func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}

// Delete removes a snapshot.
func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, sessionID)
	return nil
}
