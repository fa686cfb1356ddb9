package database

import (
	"testing"
	"time"

	"github.com/lecternai/lectern/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(videoID string, chunkID int, content string, embedding []float32) *model.Record {
	return &model.Record{
		RecordID:  model.NewRecordID(videoID, chunkID),
		VideoID:   videoID,
		ChunkID:   chunkID,
		Content:   content,
		Embedding: embedding,
		Model:     "test-model",
		Metadata: model.Metadata{
			"video_id": videoID,
			"chunk_id": chunkID,
		},
	}
}

func TestNewRecordsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewRecordsDBHandler", func(t *testing.T) {
		recordsDbHandler, err := NewRecordsDBHandler(database, 3, true)
		assert.NoError(t, err, "Expected NewRecordsDBHandler to not return an error")
		require.NotNil(t, recordsDbHandler, "Expected NewRecordsDBHandler to return a non-nil instance")
		require.NotNil(t, recordsDbHandler.db, "Expected NewRecordsDBHandler to have a non-nil database instance")
		require.NotNil(t, recordsDbHandler.db.Instance, "Expected NewRecordsDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewRecordsDBHandler with nil database", func(t *testing.T) {
		_, err := NewRecordsDBHandler(nil, 3, false)
		assert.Error(t, err, "Expected error when creating RecordsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestRecordsUpsert(t *testing.T) {
	database := initDB(t)

	recordsDbHandler, err := NewRecordsDBHandler(database, 3, true)
	require.NoError(t, err, "Expected NewRecordsDBHandler to not return an error")

	t.Run("Upsert single record", func(t *testing.T) {
		record := testRecord("upsert1", 0, "first chunk of the transcript", []float32{1, 0, 0})

		err := recordsDbHandler.UpsertRecords([]*model.Record{record})
		assert.NoError(t, err, "Expected UpsertRecords to not return an error")
		assert.WithinDuration(t, record.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
	})

	t.Run("Upsert with existing id replaces instead of duplicating", func(t *testing.T) {
		first := testRecord("upsert2", 0, "original content", []float32{1, 0, 0})
		err := recordsDbHandler.UpsertRecords([]*model.Record{first})
		require.NoError(t, err)

		second := testRecord("upsert2", 0, "replaced content", []float32{0, 1, 0})
		err = recordsDbHandler.UpsertRecords([]*model.Record{second})
		require.NoError(t, err)

		count, err := recordsDbHandler.CountRecordsByVideo("upsert2")
		require.NoError(t, err)
		assert.Equal(t, 1, count, "Upserting the same record id twice must not grow the count")

		results, err := recordsDbHandler.SelectRecordsBySimilarity("upsert2", []float32{0, 1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "replaced content", results[0].Content, "Expected content to be replaced")
	})

	t.Run("Upsert keeps chunk order", func(t *testing.T) {
		records := []*model.Record{
			testRecord("upsert3", 0, "chunk zero", []float32{1, 0, 0}),
			testRecord("upsert3", 1, "chunk one", []float32{0, 1, 0}),
			testRecord("upsert3", 2, "chunk two", []float32{0, 0, 1}),
		}

		err := recordsDbHandler.UpsertRecords(records)
		require.NoError(t, err)

		count, err := recordsDbHandler.CountRecordsByVideo("upsert3")
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func TestRecordsSelectBySimilarity(t *testing.T) {
	database := initDB(t)

	recordsDbHandler, err := NewRecordsDBHandler(database, 3, true)
	require.NoError(t, err)

	records := []*model.Record{
		testRecord("sim1", 0, "about databases", []float32{1, 0, 0}),
		testRecord("sim1", 1, "about cooking", []float32{0, 1, 0}),
		testRecord("sim1", 2, "about gardening", []float32{0, 0, 1}),
	}
	require.NoError(t, recordsDbHandler.UpsertRecords(records))

	t.Run("Orders by ascending distance", func(t *testing.T) {
		results, err := recordsDbHandler.SelectRecordsBySimilarity("sim1", []float32{1, 0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, "about databases", results[0].Content, "Closest record should come first")
		assert.InDelta(t, 0.0, results[0].Distance, 0.0001, "Identical vector should have zero cosine distance")
		assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
		assert.LessOrEqual(t, results[1].Distance, results[2].Distance)
	})

	t.Run("Respects the limit", func(t *testing.T) {
		results, err := recordsDbHandler.SelectRecordsBySimilarity("sim1", []float32{1, 0, 0}, 2)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("Unknown video yields empty result", func(t *testing.T) {
		results, err := recordsDbHandler.SelectRecordsBySimilarity("never-indexed", []float32{1, 0, 0}, 5)
		assert.NoError(t, err, "Querying an unindexed video must not be an error")
		assert.Empty(t, results)
	})

	t.Run("Scans metadata back", func(t *testing.T) {
		results, err := recordsDbHandler.SelectRecordsBySimilarity("sim1", []float32{1, 0, 0}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "sim1", results[0].Metadata["video_id"])
	})
}

func TestRecordsScoping(t *testing.T) {
	database := initDB(t)

	recordsDbHandler, err := NewRecordsDBHandler(database, 3, true)
	require.NoError(t, err)

	// Two videos with identical embeddings
	require.NoError(t, recordsDbHandler.UpsertRecords([]*model.Record{
		testRecord("scopeA", 0, "content of video A", []float32{1, 0, 0}),
	}))
	require.NoError(t, recordsDbHandler.UpsertRecords([]*model.Record{
		testRecord("scopeB", 0, "content of video B", []float32{1, 0, 0}),
	}))

	t.Run("Query never crosses video boundaries", func(t *testing.T) {
		results, err := recordsDbHandler.SelectRecordsBySimilarity("scopeA", []float32{1, 0, 0}, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "scopeA", results[0].VideoID)
	})

	t.Run("Delete never crosses video boundaries", func(t *testing.T) {
		deleted, err := recordsDbHandler.DeleteRecordsByVideo("scopeA")
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		count, err := recordsDbHandler.CountRecordsByVideo("scopeB")
		require.NoError(t, err)
		assert.Equal(t, 1, count, "Deleting video A must not touch video B")
	})

	t.Run("Delete of unmatched video returns zero", func(t *testing.T) {
		deleted, err := recordsDbHandler.DeleteRecordsByVideo("scopeC")
		assert.NoError(t, err)
		assert.Equal(t, 0, deleted)
	})
}

func TestRecordsVideoModel(t *testing.T) {
	database := initDB(t)

	recordsDbHandler, err := NewRecordsDBHandler(database, 3, true)
	require.NoError(t, err)

	t.Run("Unindexed video has empty model", func(t *testing.T) {
		modelName, err := recordsDbHandler.SelectVideoModel("modelless")
		require.NoError(t, err)
		assert.Equal(t, "", modelName)
	})

	t.Run("Returns the model recorded at ingest", func(t *testing.T) {
		require.NoError(t, recordsDbHandler.UpsertRecords([]*model.Record{
			testRecord("modelled", 0, "some content", []float32{1, 0, 0}),
		}))

		modelName, err := recordsDbHandler.SelectVideoModel("modelled")
		require.NoError(t, err)
		assert.Equal(t, "test-model", modelName)
	})
}

func TestChangeIndexType(t *testing.T) {
	database := initDB(t)

	recordsDbHandler, err := NewRecordsDBHandler(database, 3, true)
	require.NoError(t, err)

	t.Run("Change to ivfflat and back to hnsw", func(t *testing.T) {
		err := recordsDbHandler.ChangeIndexType(t.Context(), "ivfflat", map[string]interface{}{"lists": 10})
		assert.NoError(t, err)

		err = recordsDbHandler.ChangeIndexType(t.Context(), "hnsw", nil)
		assert.NoError(t, err)
	})

	t.Run("Unsupported index type returns error", func(t *testing.T) {
		err := recordsDbHandler.ChangeIndexType(t.Context(), "btree", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported index type")
	})
}
