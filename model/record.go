package model

import (
	"fmt"
	"time"
)

// Record is one indexed unit owned by the vector index.
type Record struct {
	RecordID  string    `json:"record_id"`
	VideoID   string    `json:"video_id"`
	ChunkID   int       `json:"chunk_id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
	// Model is the embedding model that produced the vector. All records of
	// one video carry the same model; re-ingesting with a different model
	// replaces the video's records wholesale.
	Model     string    `json:"model"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	// Results
	Distance float64 `json:"distance,omitempty"`
}

// NewRecordID builds the deterministic record id for a (video, chunk) pair.
// Re-ingesting the same video produces the same ids, so upserts overwrite
// instead of duplicating.
func NewRecordID(videoID string, chunkID int) string {
	return fmt.Sprintf("%v_chunk_%v", videoID, chunkID)
}
