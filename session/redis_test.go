package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store := NewRedisStore(RedisOptions{Addr: mr.Addr()})
	defer store.Close()

	ctx := context.Background()

	state := NewState("s1", 10, "system")
	state.Append(NewTurn(RoleUser, "hi"))

	// Save
	require.NoError(t, store.Save(ctx, state.Snapshot()))

	// Load
	snap, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", snap.ID)
	assert.Len(t, snap.Turns, 2)

	// Missing session
	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// Delete
	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_TTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store := NewRedisStore(RedisOptions{Addr: mr.Addr(), TTL: time.Minute})
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &Snapshot{ID: "s1", Window: 10}))

	// Session expires once the TTL elapses.
	mr.FastForward(2 * time.Minute)

	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store := NewRedisStore(RedisOptions{Addr: mr.Addr(), Prefix: "films:"})
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), &Snapshot{ID: "s1"}))
	assert.True(t, mr.Exists("films:session:s1"))
}
