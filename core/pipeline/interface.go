package pipeline

import (
	"context"

	"github.com/lecternai/lectern/model"
)

// ChunkFunc splits text into an ordered sequence of overlapping chunks.
// Chunk ids are a contiguous 0-based sequence; empty text yields an empty
// slice.
type ChunkFunc func(text string) ([]*model.Chunk, error)

// Pipeline combines a chunker and an embedder
type Pipeline struct {
	Chunker  ChunkFunc
	Embedder Embedder
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc, embedder Embedder) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
	}
}

// DefaultPipeline sets up the default ingest pipeline: token windows over the
// local model's vocabulary (window 1000, overlap 100) and local embeddings.
// The local backend is the deliberate default to keep ingest off quota.
func DefaultPipeline() *Pipeline {
	config := model.DefaultIngestConfig()
	return NewPipeline(
		NewChunker(LocalModelName, config.Window, config.Overlap),
		NewLocalEmbedder(),
	)
}

// Process chunks text and embeds all chunk texts in one batched call.
// Chunks and embeddings are index-aligned.
func (p *Pipeline) Process(ctx context.Context, text string) ([]*model.Chunk, [][]float32, error) {
	chunks, err := p.Chunker(text)
	if err != nil {
		return nil, nil, err
	}
	if len(chunks) == 0 {
		return chunks, nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := p.Embedder.Embed(ctx, texts)
	if err != nil {
		return nil, nil, err
	}

	return chunks, embeddings, nil
}
