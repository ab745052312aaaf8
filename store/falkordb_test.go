package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFalkorDB(t *testing.T) {
	// A live FalkorDB instance is not available in unit tests; cover the
	// connection-string handling.

	t.Run("invalid URL", func(t *testing.T) {
		q, err := NewFalkorDB("://")
		assert.Error(t, err)
		assert.Nil(t, q)
	})

	t.Run("missing host", func(t *testing.T) {
		q, err := NewFalkorDB("falkordb:///movies")
		assert.Error(t, err)
		assert.Nil(t, q)
	})

	t.Run("defaults graph name", func(t *testing.T) {
		q, err := NewFalkorDB("falkordb://localhost:6379")
		assert.NoError(t, err)
		assert.Equal(t, "movies", q.graphName)
		assert.NoError(t, q.Close())
	})

	t.Run("explicit graph name", func(t *testing.T) {
		q, err := NewFalkorDB("falkordb://localhost:6379/films")
		assert.NoError(t, err)
		assert.Equal(t, "films", q.graphName)
		assert.NoError(t, q.Close())
	})
}
