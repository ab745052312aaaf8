package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SessionIsolation(t *testing.T) {
	m := NewManager(10, "system", nil)
	ctx := context.Background()

	err := m.WithSession(ctx, "a", func(s *State) error {
		s.Append(NewTurn(RoleUser, "hello from a"))
		return nil
	})
	require.NoError(t, err)

	err = m.WithSession(ctx, "b", func(s *State) error {
		assert.Len(t, s.History(), 1, "session b must not see session a's turns")
		return nil
	})
	require.NoError(t, err)
}

func TestManager_PersistsOnSuccess(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(10, "system", store)
	ctx := context.Background()

	require.NoError(t, m.WithSession(ctx, "a", func(s *State) error {
		s.Append(NewTurn(RoleUser, "hi"))
		return nil
	}))

	snap, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, snap.Turns, 2)
}

func TestManager_DoesNotPersistOnError(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(10, "system", store)
	ctx := context.Background()

	wantErr := errors.New("turn aborted")
	err := m.WithSession(ctx, "a", func(s *State) error {
		s.Append(NewTurn(RoleUser, "hi"))
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_RestoresFromStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seed := NewState("a", 10, "system")
	seed.Append(NewTurn(RoleUser, "remembered question"))
	require.NoError(t, store.Save(ctx, seed.Snapshot()))

	m := NewManager(10, "system", store)
	require.NoError(t, m.WithSession(ctx, "a", func(s *State) error {
		history := s.History()
		require.Len(t, history, 2)
		assert.Equal(t, "remembered question", history[1].Text)
		return nil
	}))
}

func TestManager_Restart(t *testing.T) {
	m := NewManager(10, "system", NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, m.WithSession(ctx, "a", func(s *State) error {
		s.Append(NewTurn(RoleUser, "q"))
		s.Append(NewTurn(RoleAssistant, "a"))
		return nil
	}))

	require.NoError(t, m.Restart(ctx, "a"))

	require.NoError(t, m.WithSession(ctx, "a", func(s *State) error {
		history := s.History()
		require.Len(t, history, 1)
		assert.Equal(t, RoleSystem, history[0].Role)
		return nil
	}))
}

func TestManager_ConcurrentSessions(t *testing.T) {
	m := NewManager(50, "system", nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_ = m.WithSession(ctx, id, func(s *State) error {
					s.Append(NewTurn(RoleUser, id))
					return nil
				})
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"a", "b", "c", "d"} {
		_ = m.WithSession(ctx, id, func(s *State) error {
			assert.Len(t, s.History(), 21)
			return nil
		})
	}
}

// blockingStore stalls the restore of one session until released.
type blockingStore struct {
	loading chan struct{}
	unblock chan struct{}
	once    sync.Once
}

func (s *blockingStore) Save(ctx context.Context, snap *Snapshot) error { return nil }

func (s *blockingStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	if sessionID == "slow" {
		s.once.Do(func() { close(s.loading) })
		<-s.unblock
	}
	return nil, ErrNotFound
}

func (s *blockingStore) Delete(ctx context.Context, sessionID string) error { return nil }

func TestManager_SlowRestoreDoesNotBlockOtherSessions(t *testing.T) {
	store := &blockingStore{loading: make(chan struct{}), unblock: make(chan struct{})}
	m := NewManager(10, "system", store)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- m.WithSession(ctx, "slow", func(s *State) error { return nil })
	}()
	<-store.loading

	// Another session's first turn proceeds while the restore is stuck.
	require.NoError(t, m.WithSession(ctx, "fast", func(s *State) error { return nil }))

	close(store.unblock)
	require.NoError(t, <-done)
}

func TestNewSessionID(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
