package transcript

import (
	"context"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lecternai/lectern/model"
)

// WhisperRecognizer transcribes audio files through the OpenAI Whisper API
type WhisperRecognizer struct {
	client *openai.Client
}

// NewWhisperRecognizer creates a Whisper-backed recognizer. The API key
// comes from OPENAI_API_KEY.
func NewWhisperRecognizer() (*WhisperRecognizer, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, &model.ConfigurationError{Setting: "OPENAI_API_KEY"}
	}
	return &WhisperRecognizer{client: openai.NewClient(key)}, nil
}

// Recognize transcribes the audio file at path to raw text
func (r *WhisperRecognizer) Recognize(ctx context.Context, path string) (string, error) {
	resp, err := r.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: path,
	})
	if err != nil {
		return "", &model.ProviderError{Provider: "whisper", Err: err}
	}
	return resp.Text, nil
}
