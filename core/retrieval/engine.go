package retrieval

import (
	"context"

	"github.com/lecternai/lectern/database"
	"github.com/lecternai/lectern/model"
)

// Engine provides vector similarity retrieval over indexed transcripts
type Engine struct {
	records database.RecordsDBHandlerFunctions
}

// NewEngine creates a new retrieval engine
func NewEngine(records database.RecordsDBHandlerFunctions) *Engine {
	return &Engine{records: records}
}

// Retrieve returns the topK chunks of one video nearest to the query
// embedding, most similar first. Distance is cosine distance; similarity is
// 1 - distance clamped to [0, 1]. An unknown video yields an empty slice.
func (e *Engine) Retrieve(ctx context.Context, videoID string, embedding []float32, topK int) ([]*model.RetrievalResult, error) {
	if topK <= 0 {
		topK = model.DefaultQueryConfig().TopK
	}

	records, err := e.records.SelectRecordsBySimilarity(videoID, embedding, topK)
	if err != nil {
		return nil, err
	}

	results := make([]*model.RetrievalResult, len(records))
	for i, record := range records {
		results[i] = &model.RetrievalResult{
			Record:     record,
			Distance:   record.Distance,
			Similarity: clamp01(1 - record.Distance),
		}
	}

	return results, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
