package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotIndexed is returned when a query targets a video with no indexed
	// transcript. The caller should re-ingest the video.
	ErrNotIndexed = errors.New("video has no indexed transcript")

	// ErrTranscriptUnavailable is returned when every acquisition tier is
	// exhausted without producing a transcript.
	ErrTranscriptUnavailable = errors.New("no transcript or captions available")
)

// ConfigurationError indicates a missing credential or setting. It is fatal,
// never retried against a fallback.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %v", e.Setting)
}

// ProviderError wraps a transient failure from an external API (network,
// quota, auth). Callers retry it through the documented fallback chain
// instead of propagating it raw.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %v: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
