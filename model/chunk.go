package model

// Chunk is a contiguous, overlapping slice of a transcript sized for embedding.
// Offsets are token positions when a tokenizer produced the chunk and rune
// positions when the chunker fell back to character windows.
type Chunk struct {
	ID          int    `json:"id"`
	Text        string `json:"text"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Length      int    `json:"length"`
}
