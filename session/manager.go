package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/moviegraph/chat/log"
)

// Manager maps session ids to independent conversation states and serializes
// access per session: turns within a session run strictly one at a time,
// while different sessions proceed concurrently.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managedSession

	window       int
	systemPrompt string
	store        Store
}

type managedSession struct {
	mu sync.Mutex

	// state is nil until the first turn restores (or creates) it under mu.
	state *State
}

// NewManager creates a session manager. The store may be nil, in which case
// sessions live only in memory for the process lifetime.
func NewManager(window int, systemPrompt string, store Store) *Manager {
	return &Manager{
		sessions:     make(map[string]*managedSession),
		window:       window,
		systemPrompt: systemPrompt,
		store:        store,
	}
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// WithSession runs fn with the session's state under the per-session lock,
// creating the session (or restoring it from the store) on first use. When
// fn returns nil the state is persisted.
func (m *Manager) WithSession(ctx context.Context, sessionID string, fn func(*State) error) error {
	ms := m.managed(sessionID)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.state == nil {
		state, err := m.restore(ctx, sessionID)
		if err != nil {
			return err
		}
		ms.state = state
	}

	if err := fn(ms.state); err != nil {
		return err
	}
	return m.persist(ctx, ms.state)
}

// Restart clears the session's conversation back to its initial state.
func (m *Manager) Restart(ctx context.Context, sessionID string) error {
	return m.WithSession(ctx, sessionID, func(s *State) error {
		s.Restart()
		log.Info("session %s restarted", sessionID)
		return nil
	})
}

// managed returns the session's entry, inserting an empty one on first use.
// Restoring from the store happens later under the per-session lock, so a
// slow restore never blocks other sessions' first access.
func (m *Manager) managed(sessionID string) *managedSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, ok := m.sessions[sessionID]
	if !ok {
		ms = &managedSession{}
		m.sessions[sessionID] = ms
	}
	return ms
}

func (m *Manager) restore(ctx context.Context, sessionID string) (*State, error) {
	if m.store != nil {
		snap, err := m.store.Load(ctx, sessionID)
		switch {
		case err == nil:
			log.Debug("session %s restored (%d turns)", sessionID, len(snap.Turns))
			return FromSnapshot(snap), nil
		case errors.Is(err, ErrNotFound):
			// fall through to a fresh state
		default:
			return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
		}
	}

	return NewState(sessionID, m.window, m.systemPrompt), nil
}

func (m *Manager) persist(ctx context.Context, state *State) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Save(ctx, state.Snapshot()); err != nil {
		return fmt.Errorf("persist session %s: %w", state.ID(), err)
	}
	return nil
}
