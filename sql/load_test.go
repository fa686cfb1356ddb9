package sql

import (
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	db := initDB(t)

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		// Verify pgvector extension is created
		var exists bool
		err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "pgvector extension should be created")
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		err = Init(db.Instance)
		assert.NoError(t, err)
	})
}

func TestLoadRecordsSql(t *testing.T) {
	db := initDB(t)
	defer db.Instance.Close()

	err := Init(db.Instance)
	require.NoError(t, err)

	t.Run("Load records SQL functions", func(t *testing.T) {
		err := LoadRecordsSql(db.Instance, false)
		assert.NoError(t, err)

		// Verify all functions exist
		for _, funcName := range RecordsFunctions {
			var exists bool
			err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
			require.NoError(t, err)
			assert.True(t, exists, "Function %s should exist", funcName)
		}
	})

	t.Run("Load records SQL functions is idempotent", func(t *testing.T) {
		err := LoadRecordsSql(db.Instance, false)
		assert.NoError(t, err)

		err = LoadRecordsSql(db.Instance, true)
		assert.NoError(t, err)
	})

	t.Run("Functions can be loaded before the records table exists", func(t *testing.T) {
		// Functions are plpgsql, so loading them must not require the table.
		var exists bool
		err := db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = 'upsert_record');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}
