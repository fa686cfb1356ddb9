package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/lecternai/lectern/helper"
	"github.com/lecternai/lectern/model"
	loadSql "github.com/lecternai/lectern/sql"
)

// RecordsDBHandlerFunctions defines the interface for records database operations.
type RecordsDBHandlerFunctions interface {
	UpsertRecords(records []*model.Record) error
	SelectRecordsBySimilarity(videoID string, embedding []float32, limit int) ([]*model.Record, error)
	CountRecordsByVideo(videoID string) (int, error)
	SelectVideoModel(videoID string) (string, error)
	DeleteRecordsByVideo(videoID string) (int, error)
}

// RecordsDBHandler handles record-related database operations.
// All queries and deletes are scoped by video_id; records of different videos
// share one table and are separated only by that filter.
type RecordsDBHandler struct {
	db *helper.Database
}

// NewRecordsDBHandler creates a new records database handler.
// It loads the record-related SQL functions and creates the table with the
// given embedding dimension. If force is true, it reloads the SQL functions
// even if they already exist.
func NewRecordsDBHandler(db *helper.Database, embeddingDim int, force bool) (*RecordsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	recordsDbHandler := &RecordsDBHandler{
		db: db,
	}

	err := loadSql.LoadRecordsSql(recordsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load records sql", err)
	}

	err = recordsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RecordsDBHandler")

	return recordsDbHandler, nil
}

// CreateTable creates the 'records' table in the database.
// If the table already exists, it does not create it again.
func (h *RecordsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_records($1);`, embeddingDim)
	if err != nil {
		return helper.NewError("initialize records table", err)
	}

	h.db.Logger.Info("Checked/created table records")

	return nil
}

// UpsertRecords inserts or replaces records in order. A record whose id
// already exists is overwritten, never duplicated.
func (h *RecordsDBHandler) UpsertRecords(records []*model.Record) error {
	for i, record := range records {
		row := h.db.Instance.QueryRow(
			`SELECT upsert_record($1, $2, $3, $4, $5, $6, $7)`,
			record.RecordID,
			record.VideoID,
			record.ChunkID,
			record.Content,
			pgvector.NewVector(record.Embedding),
			record.Model,
			record.Metadata,
		)

		err := row.Scan(&record.CreatedAt)
		if err != nil {
			return helper.NewError(fmt.Sprintf("upsert record %d", i), err)
		}
	}

	return nil
}

// SelectRecordsBySimilarity returns up to limit records of one video ordered
// by ascending cosine distance to the query embedding. A video with no
// matching records yields an empty result, not an error.
func (h *RecordsDBHandler) SelectRecordsBySimilarity(videoID string, embedding []float32, limit int) ([]*model.Record, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_records_by_similarity($1, $2, $3)`,
		videoID,
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.Record
	for rows.Next() {
		record := &model.Record{}

		err := rows.Scan(
			&record.RecordID,
			&record.VideoID,
			&record.ChunkID,
			&record.Content,
			&record.Model,
			&record.Metadata,
			&record.CreatedAt,
			&record.Distance,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return records, nil
}

// CountRecordsByVideo returns the number of indexed records for a video
func (h *RecordsDBHandler) CountRecordsByVideo(videoID string) (int, error) {
	var count int
	err := h.db.Instance.QueryRow(
		`SELECT count_records_by_video($1)`,
		videoID,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// SelectVideoModel returns the embedding model a video was indexed with,
// or an empty string if the video has no records.
func (h *RecordsDBHandler) SelectVideoModel(videoID string) (string, error) {
	var modelName string
	err := h.db.Instance.QueryRow(
		`SELECT select_video_model($1)`,
		videoID,
	).Scan(&modelName)
	if err != nil {
		return "", helper.NewError("scan", err)
	}
	return modelName, nil
}

// DeleteRecordsByVideo removes all records of a video and returns the number deleted
func (h *RecordsDBHandler) DeleteRecordsByVideo(videoID string) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRow(
		`SELECT delete_records_by_video($1)`,
		videoID,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return deleted, nil
}
