package lectern

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/lecternai/lectern/core/llm"
	"github.com/lecternai/lectern/core/pipeline"
	"github.com/lecternai/lectern/core/retrieval"
	"github.com/lecternai/lectern/database"
	"github.com/lecternai/lectern/helper"
	"github.com/lecternai/lectern/model"
	loadSql "github.com/lecternai/lectern/sql"
)

const overviewQuery = "Give me an overview of the main topics, key arguments, and conclusions."

const noMatchAnswer = "I could not find anything in this video relevant to your question."

// summaryContextLimit bounds the head-truncation fallback when retrieval
// cannot assemble a context window.
const summaryContextLimit = 12000

// Lectern ties the transcript pipeline, the vector index and the chat
// completion client together into the ingest/answer/summarize operations.
type Lectern struct {
	DB        *helper.Database
	Records   database.RecordsDBHandlerFunctions
	Engine    *retrieval.Engine
	Pipeline  *pipeline.Pipeline // Optional processing pipeline
	Completer llm.Completer      // Optional chat completion client
	// Logging
	log *slog.Logger
	// Per-video ingest serialization
	locks *keyedMutex
}

// NewLectern creates a new Lectern instance with the records handler and
// retrieval engine initialized. The embedding dimension fixes the vector
// column width and must match the embedder set on the pipeline.
func NewLectern(config *helper.DatabaseConfiguration, embeddingDim int) (*Lectern, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("lectern", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	records, err := database.NewRecordsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create records handler", err)
	}

	engine := retrieval.NewEngine(records)

	return &Lectern{
		DB:      db,
		Records: records,
		Engine:  engine,
		log:     logger,
		locks:   newKeyedMutex(),
	}, nil
}

// Close closes the database connection
func (l *Lectern) Close() error {
	if l.DB != nil && l.DB.Instance != nil {
		return l.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the chunking and embedding pipeline
func (l *Lectern) SetPipeline(pipeline *pipeline.Pipeline) {
	l.Pipeline = pipeline
}

// SetCompleter sets the chat completion client used for answers and summaries
func (l *Lectern) SetCompleter(completer llm.Completer) {
	l.Completer = completer
}

// UseDefaultPipeline sets up the default pipeline: token windows of 1000
// with an overlap of 100 over the local MiniLM vocabulary, embedded locally
// (384 dimensions).
func (l *Lectern) UseDefaultPipeline() {
	l.Pipeline = pipeline.DefaultPipeline()
}

// Ingest chunks and embeds a transcript and upserts it under videoID.
// Returns the number of chunks indexed. Ingest never fails the caller: any
// pipeline or index error is logged and reported as 0 chunks, so flows that
// merely benefit from retrieval context can proceed without it.
// Re-ingesting the same video overwrites prior chunks; a video previously
// indexed with a different embedding model has its records cleared first.
// Concurrent ingests of the same video are serialized.
func (l *Lectern) Ingest(ctx context.Context, videoID string, text string) int {
	if l.Pipeline == nil {
		l.log.Warn("Ingest skipped, pipeline not set", slog.String("videoId", videoID))
		return 0
	}

	unlock := l.locks.lock(videoID)
	defer unlock()

	chunks, embeddings, err := l.Pipeline.Process(ctx, text)
	if err != nil {
		l.log.Warn("Ingest failed during processing",
			slog.String("videoId", videoID),
			slog.String("error", err.Error()))
		return 0
	}
	if len(chunks) == 0 {
		return 0
	}

	modelName := l.Pipeline.Embedder.ModelName()
	previous, err := l.Records.SelectVideoModel(videoID)
	if err != nil {
		l.log.Warn("Ingest failed reading indexed model",
			slog.String("videoId", videoID),
			slog.String("error", err.Error()))
		return 0
	}
	if previous != "" && previous != modelName {
		deleted, err := l.Records.DeleteRecordsByVideo(videoID)
		if err != nil {
			l.log.Warn("Ingest failed clearing stale embeddings",
				slog.String("videoId", videoID),
				slog.String("error", err.Error()))
			return 0
		}
		l.log.Info("Cleared records embedded with a different model",
			slog.String("videoId", videoID),
			slog.String("previousModel", previous),
			slog.Int("deleted", deleted))
	}

	records := make([]*model.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = &model.Record{
			RecordID:  model.NewRecordID(videoID, chunk.ID),
			VideoID:   videoID,
			ChunkID:   chunk.ID,
			Content:   chunk.Text,
			Embedding: embeddings[i],
			Model:     modelName,
			Metadata: model.Metadata{
				"start_offset": chunk.StartOffset,
				"end_offset":   chunk.EndOffset,
				"length":       chunk.Length,
			},
		}
	}

	if err := l.Records.UpsertRecords(records); err != nil {
		l.log.Warn("Ingest failed upserting records",
			slog.String("videoId", videoID),
			slog.String("error", err.Error()))
		return 0
	}

	l.log.Info("Ingested video transcript",
		slog.String("videoId", videoID),
		slog.Int("chunks", len(records)))
	return len(records)
}

// Answer answers a question about an indexed video, grounded in the topK
// most similar transcript chunks. Returns model.ErrNotIndexed when the video
// has no records; a question matching no chunks yields a canned answer with
// empty sources rather than a completion call.
func (l *Lectern) Answer(ctx context.Context, videoID string, question string, topK int) (*model.Answer, error) {
	if l.Pipeline == nil {
		return nil, helper.NewError("answer question", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	if l.Completer == nil {
		return nil, helper.NewError("answer question", fmt.Errorf("completer not set, use SetCompleter() first"))
	}

	count, err := l.Records.CountRecordsByVideo(videoID)
	if err != nil {
		return nil, helper.NewError("count indexed chunks", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("video %v: %w", videoID, model.ErrNotIndexed)
	}

	embeddings, err := l.Pipeline.Embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, helper.NewError("embed question", err)
	}

	results, err := l.Engine.Retrieve(ctx, videoID, embeddings[0], topK)
	if err != nil {
		return nil, helper.NewError("retrieve chunks", err)
	}
	if len(results) == 0 {
		return &model.Answer{Text: noMatchAnswer, Sources: []model.Source{}}, nil
	}

	system, user := retrieval.BuildGroundedPrompt(question, results)
	text, err := l.Completer.Complete(ctx, system, user, 0)
	if err != nil {
		return nil, helper.NewError("generate answer", err)
	}

	previewLength := model.DefaultQueryConfig().PreviewLength
	sources := make([]model.Source, len(results))
	for i, result := range results {
		sources[i] = model.Source{
			ChunkID:    result.Record.ChunkID,
			Preview:    truncate(result.Record.Content, previewLength),
			Similarity: result.Similarity,
		}
	}

	return &model.Answer{Text: text, Sources: sources}, nil
}

// SummarizeWithContext summarizes a transcript using a retrieved context
// window: the video is ingested if absent, a generic overview query selects
// representative chunks, and the labeled segments feed the summary prompt.
// If indexing or retrieval fails at any step the summary falls back to the
// head of the raw text.
func (l *Lectern) SummarizeWithContext(ctx context.Context, videoID string, text string, summaryType model.SummaryType) (string, error) {
	if l.Completer == nil {
		return "", helper.NewError("summarize", fmt.Errorf("completer not set, use SetCompleter() first"))
	}

	contextBlock := l.assembleContext(ctx, videoID, text)
	system, user := summaryPrompt(summaryType, contextBlock)

	summary, err := l.Completer.Complete(ctx, system, user, 0)
	if err != nil {
		return "", helper.NewError("generate summary", err)
	}
	return summary, nil
}

// Delete removes all indexed records of a video and returns the count removed
func (l *Lectern) Delete(ctx context.Context, videoID string) (int, error) {
	unlock := l.locks.lock(videoID)
	defer unlock()

	deleted, err := l.Records.DeleteRecordsByVideo(videoID)
	if err != nil {
		return 0, helper.NewError("delete video records", err)
	}
	return deleted, nil
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (l *Lectern) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	records, ok := l.Records.(*database.RecordsDBHandler)
	if !ok {
		return helper.NewError("change index type", fmt.Errorf("records handler does not manage a vector index"))
	}
	return records.ChangeIndexType(ctx, indexType, params)
}

// assembleContext builds the summary context from retrieval, degrading to
// head truncation of the raw text when the index cannot serve.
func (l *Lectern) assembleContext(ctx context.Context, videoID string, text string) string {
	if l.Pipeline == nil {
		return truncate(text, summaryContextLimit)
	}

	count, err := l.Records.CountRecordsByVideo(videoID)
	if err != nil {
		l.log.Warn("Summary context degraded to raw text",
			slog.String("videoId", videoID),
			slog.String("error", err.Error()))
		return truncate(text, summaryContextLimit)
	}
	if count == 0 {
		if l.Ingest(ctx, videoID, text) == 0 {
			return truncate(text, summaryContextLimit)
		}
	}

	embeddings, err := l.Pipeline.Embedder.Embed(ctx, []string{overviewQuery})
	if err != nil {
		l.log.Warn("Summary context degraded to raw text",
			slog.String("videoId", videoID),
			slog.String("error", err.Error()))
		return truncate(text, summaryContextLimit)
	}

	results, err := l.Engine.Retrieve(ctx, videoID, embeddings[0], model.DefaultQueryConfig().TopK)
	if err != nil || len(results) == 0 {
		return truncate(text, summaryContextLimit)
	}

	return retrieval.BuildContextBlock(results)
}

func summaryPrompt(summaryType model.SummaryType, contextBlock string) (string, string) {
	system := "You are a helpful education assistant specialized in lecture summarization."

	var user string
	switch summaryType {
	case model.SummaryBrief:
		user = fmt.Sprintf("Provide a concise summary (3-5 core sentences) of the following content:\n\n%v", contextBlock)
	case model.SummaryBullet:
		user = fmt.Sprintf("Extract 5-10 key points as bullet points from the following content:\n\n%v", contextBlock)
	default:
		user = fmt.Sprintf("Provide a comprehensive summary of the following content, covering the main topics, key arguments, and final conclusions:\n\n%v", contextBlock)
	}

	return system, user
}

func truncate(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit])
}

// keyedMutex serializes operations per string key
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*sync.Mutex{}}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
