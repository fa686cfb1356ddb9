package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"

	"github.com/knights-analytics/hugot"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lecternai/lectern/helper"
	"github.com/lecternai/lectern/model"
)

// Backend selects which embedding provider serves a request
type Backend string

const (
	BackendLocal  Backend = "local"
	BackendRemote Backend = "remote"
)

const (
	// LocalModelName is the sentence transformer encoded in-process (384 dimensions)
	LocalModelName = "sentence-transformers/all-MiniLM-L6-v2"
	// LocalDimension is the embedding size of LocalModelName
	LocalDimension = 384
	// RemoteModelName is the default OpenAI embedding model (1536 dimensions)
	RemoteModelName = "text-embedding-3-small"
)

// Embedder converts texts into fixed-dimension vectors, preserving input order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelName() string
}

// LocalEmbedder encodes texts in-process with a hugot feature-extraction
// pipeline. The model is downloaded and initialized once, lazily, on first
// use; initialization is safe under concurrent first calls.
type LocalEmbedder struct {
	modelName string
	once      sync.Once
	initErr   error
	encode    func([]string) ([][]float32, error)
}

// NewLocalEmbedder creates the local embedder. No model is loaded until the
// first Embed call.
func NewLocalEmbedder() *LocalEmbedder {
	return &LocalEmbedder{modelName: LocalModelName}
}

func (e *LocalEmbedder) init() {
	modelPath, err := helper.PrepareModel(e.modelName, "onnx/model.onnx")
	if err != nil {
		e.initErr = err
		return
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		e.initErr = fmt.Errorf("failed to create hugot session: %w", err)
		return
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		e.initErr = fmt.Errorf("failed to create sentence pipeline: %w", err)
		return
	}

	e.encode = func(texts []string) ([][]float32, error) {
		result, err := sentencePipeline.RunPipeline(texts)
		if err != nil {
			return nil, err
		}
		return result.Embeddings, nil
	}
}

// Embed encodes all texts in one pass. Deterministic for fixed model weights.
func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.once.Do(e.init)
	if e.initErr != nil {
		return nil, &model.ProviderError{Provider: "local", Err: e.initErr}
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embeddings, err := e.encode(texts)
	if err != nil {
		return nil, &model.ProviderError{Provider: "local", Err: err}
	}
	if len(embeddings) != len(texts) {
		return nil, &model.ProviderError{
			Provider: "local",
			Err:      fmt.Errorf("embedding count mismatch: got %d embeddings for %d texts", len(embeddings), len(texts)),
		}
	}

	return embeddings, nil
}

func (e *LocalEmbedder) Dimension() int {
	return LocalDimension
}

func (e *LocalEmbedder) ModelName() string {
	return e.modelName
}

// RemoteEmbedder calls the OpenAI embeddings API in a single batched request
type RemoteEmbedder struct {
	client    *openai.Client
	modelName string
	dimension int
}

// NewRemoteEmbedder creates the OpenAI-backed embedder. The API key comes
// from OPENAI_API_KEY; a missing key is a configuration error, never retried.
func NewRemoteEmbedder(modelName string) (*RemoteEmbedder, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, &model.ConfigurationError{Setting: "OPENAI_API_KEY"}
	}

	if modelName == "" {
		modelName = RemoteModelName
	}

	dimension := 1536
	if modelName == "text-embedding-3-large" {
		dimension = 3072
	}

	return &RemoteEmbedder{
		client:    openai.NewClient(key),
		modelName: modelName,
		dimension: dimension,
	}, nil
}

// Embed sends all texts in one request. Vectors come back L2-normalized so
// cosine distance behaves the same as for the local model.
func (e *RemoteEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.modelName),
		Input: texts,
	})
	if err != nil {
		return nil, &model.ProviderError{Provider: "openai", Err: err}
	}
	if len(resp.Data) != len(texts) {
		return nil, &model.ProviderError{
			Provider: "openai",
			Err:      fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	embeddings := make([][]float32, len(texts))
	for _, item := range resp.Data {
		vector := make([]float32, len(item.Embedding))
		copy(vector, item.Embedding)
		l2normalize(vector)
		embeddings[item.Index] = vector
	}

	return embeddings, nil
}

func (e *RemoteEmbedder) Dimension() int {
	return e.dimension
}

func (e *RemoteEmbedder) ModelName() string {
	return e.modelName
}

// FallbackEmbedder tries an ordered list of providers; the first success
// wins and later providers are never consulted for that call. Dimension and
// ModelName reflect the provider that served the most recent call, so callers
// can record which model actually produced a batch.
type FallbackEmbedder struct {
	providers []Embedder
	log       *slog.Logger

	mu     sync.Mutex
	active Embedder
}

// NewFallbackEmbedder creates a fallback chain over the given providers in order
func NewFallbackEmbedder(logger *slog.Logger, providers ...Embedder) *FallbackEmbedder {
	return &FallbackEmbedder{
		providers: providers,
		log:       logger,
	}
}

func (e *FallbackEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for _, provider := range e.providers {
		embeddings, err := provider.Embed(ctx, texts)
		if err == nil {
			e.mu.Lock()
			e.active = provider
			e.mu.Unlock()
			return embeddings, nil
		}
		lastErr = err
		e.log.Warn("Embedding provider failed, trying next",
			slog.String("provider", provider.ModelName()),
			slog.String("error", err.Error()))
	}
	return nil, lastErr
}

func (e *FallbackEmbedder) Dimension() int {
	return e.current().Dimension()
}

func (e *FallbackEmbedder) ModelName() string {
	return e.current().ModelName()
}

func (e *FallbackEmbedder) current() Embedder {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		return e.active
	}
	return e.providers[0]
}

// NewEmbedder builds the embedder for a backend flag. The remote backend
// retries failed batches against the local model; the local backend stands
// alone and never touches the network at encode time.
func NewEmbedder(backend Backend, logger *slog.Logger) (Embedder, error) {
	switch backend {
	case BackendLocal:
		return NewLocalEmbedder(), nil
	case BackendRemote:
		remote, err := NewRemoteEmbedder("")
		if err != nil {
			return nil, err
		}
		return NewFallbackEmbedder(logger, remote, NewLocalEmbedder()), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend: %v", backend)
	}
}

// l2normalize normalizes a vector to unit length
func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
