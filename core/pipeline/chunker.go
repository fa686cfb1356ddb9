package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/lecternai/lectern/helper"
	"github.com/lecternai/lectern/model"
)

// CharsPerToken approximates how many characters one token covers. The
// character fallback scales window and overlap by this factor.
const CharsPerToken = 4

// Encoder abstracts the tokenizer behind the token chunker
type Encoder interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) string
}

// wordpieceEncoder wraps the tokenizer.json vocabulary shipped with the
// local embedding model.
type wordpieceEncoder struct {
	tk *tokenizer.Tokenizer
}

func (e *wordpieceEncoder) Encode(text string) ([]int, error) {
	encoding, err := e.tk.EncodeSingle(text, false)
	if err != nil {
		return nil, err
	}
	return encoding.Ids, nil
}

func (e *wordpieceEncoder) Decode(ids []int) string {
	return e.tk.Decode(ids, true)
}

// TokenChunker creates a chunker that slides a fixed token window across the
// encoded text, advancing by window-overlap each step. The final chunk may be
// shorter than the window. Encoding failure degrades silently to character
// windows.
func TokenChunker(enc Encoder, window int, overlap int) ChunkFunc {
	return func(text string) ([]*model.Chunk, error) {
		if err := validateWindow(window, overlap); err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return []*model.Chunk{}, nil
		}

		ids, err := enc.Encode(text)
		if err != nil {
			return CharChunker(window*CharsPerToken, overlap*CharsPerToken)(text)
		}

		var chunks []*model.Chunk
		for start := 0; start < len(ids); {
			end := min(start+window, len(ids))
			chunks = append(chunks, &model.Chunk{
				ID:          len(chunks),
				Text:        enc.Decode(ids[start:end]),
				StartOffset: start,
				EndOffset:   end,
				Length:      end - start,
			})
			if end >= len(ids) {
				break
			}
			next := end - overlap
			// Guard: a window that fails to advance would loop forever
			if next <= start {
				break
			}
			start = next
		}

		return chunks, nil
	}
}

// CharChunker creates a chunker that slides a fixed rune window across the
// raw text. Same algorithm as TokenChunker, offsets are rune positions.
func CharChunker(window int, overlap int) ChunkFunc {
	return func(text string) ([]*model.Chunk, error) {
		if err := validateWindow(window, overlap); err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return []*model.Chunk{}, nil
		}

		runes := []rune(text)

		var chunks []*model.Chunk
		for start := 0; start < len(runes); {
			end := min(start+window, len(runes))
			chunks = append(chunks, &model.Chunk{
				ID:          len(chunks),
				Text:        string(runes[start:end]),
				StartOffset: start,
				EndOffset:   end,
				Length:      end - start,
			})
			if end >= len(runes) {
				break
			}
			next := end - overlap
			if next <= start {
				break
			}
			start = next
		}

		return chunks, nil
	}
}

// NewChunker creates the default chunker: token windows using the wordpiece
// vocabulary shipped with the given embedding model. The tokenizer is loaded
// lazily on first use; if the model or its tokenizer.json cannot be loaded,
// the chunker degrades silently to character windows scaled by CharsPerToken.
func NewChunker(modelName string, window int, overlap int) ChunkFunc {
	var (
		once sync.Once
		enc  Encoder
	)

	return func(text string) ([]*model.Chunk, error) {
		once.Do(func() {
			modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
			if err != nil {
				return
			}
			tk, err := pretrained.FromFile(filepath.Join(modelPath, "tokenizer.json"))
			if err != nil {
				return
			}
			enc = &wordpieceEncoder{tk: tk}
		})

		if enc == nil {
			return CharChunker(window*CharsPerToken, overlap*CharsPerToken)(text)
		}
		return TokenChunker(enc, window, overlap)(text)
	}
}

func validateWindow(window int, overlap int) error {
	if window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	if overlap < 0 || overlap >= window {
		return fmt.Errorf("overlap must be in [0, window)")
	}
	return nil
}
