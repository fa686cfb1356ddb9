package model

// IngestConfig controls chunking and embedding during ingest
type IngestConfig struct {
	// Window is the chunk size in tokens
	Window int `json:"window"`
	// Overlap is the number of tokens shared between consecutive chunks
	Overlap int `json:"overlap"`
}

// QueryConfig controls retrieval during answer and summarize calls
type QueryConfig struct {
	TopK int `json:"top_k"`
	// PreviewLength bounds the source text returned with an answer
	PreviewLength int `json:"preview_length"`
}

// DefaultIngestConfig returns the default window and overlap
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		Window:  1000,
		Overlap: 100,
	}
}

// DefaultQueryConfig returns sensible retrieval defaults
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:          5,
		PreviewLength: 200,
	}
}

// SummaryType selects the shape of a generated summary
type SummaryType string

const (
	SummaryBrief    SummaryType = "brief"
	SummaryBullet   SummaryType = "bullet"
	SummaryDetailed SummaryType = "detailed"
)
