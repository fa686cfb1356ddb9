package model

// RetrievalResult represents a record retrieved by a similarity query
type RetrievalResult struct {
	Record *Record `json:"record"`
	// Distance is the pgvector cosine distance (1 - cosine similarity, lower is closer)
	Distance float64 `json:"distance"`
	// Similarity is 1 - Distance clamped to [0, 1], for display only
	Similarity float64 `json:"similarity"`
}

// Source is a bounded preview of a retrieved chunk attached to an answer
type Source struct {
	ChunkID    int     `json:"chunk_id"`
	Preview    string  `json:"preview"`
	Similarity float64 `json:"similarity"`
}

// Answer is the result of a grounded question against an indexed video
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}
