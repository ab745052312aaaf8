package session

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "sessions")

	state := NewState("s1", 10, "system")
	state.Append(NewTurn(RoleUser, "hi"))
	snap := state.Snapshot()

	data, _ := json.Marshal(snap)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs(snap.ID, data, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Save(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "sessions")

	snap := &Snapshot{ID: "s1", Window: 10, Turns: []Turn{NewTurn(RoleSystem, "system")}}
	data, _ := json.Marshal(snap)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT snapshot FROM sessions")).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"snapshot"}).AddRow(data))

	loaded, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", loaded.ID)
	assert.Equal(t, 10, loaded.Window)
	require.Len(t, loaded.Turns, 1)
	assert.Equal(t, RoleSystem, loaded.Turns[0].Role)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "sessions")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT snapshot FROM sessions")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "sessions")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions")).
		WithArgs("s1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, store.Delete(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS sessions")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
