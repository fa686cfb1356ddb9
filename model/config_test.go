package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIngestConfig(t *testing.T) {
	t.Run("Returns correct default values", func(t *testing.T) {
		config := DefaultIngestConfig()

		assert.Equal(t, 1000, config.Window, "Default Window should be 1000 tokens")
		assert.Equal(t, 100, config.Overlap, "Default Overlap should be 100 tokens")
	})

	t.Run("Overlap is smaller than window", func(t *testing.T) {
		config := DefaultIngestConfig()

		assert.Less(t, config.Overlap, config.Window, "Overlap must stay below the window size")
	})

	t.Run("Can be modified after creation", func(t *testing.T) {
		config := DefaultIngestConfig()

		config.Window = 500
		config.Overlap = 50

		assert.Equal(t, 500, config.Window)
		assert.Equal(t, 50, config.Overlap)
	})
}

func TestDefaultQueryConfig(t *testing.T) {
	t.Run("Returns correct default values", func(t *testing.T) {
		config := DefaultQueryConfig()

		assert.Equal(t, 5, config.TopK, "Default TopK should be 5")
		assert.Equal(t, 200, config.PreviewLength, "Default PreviewLength should be 200 characters")
	})
}

func TestNewRecordID(t *testing.T) {
	t.Run("Builds deterministic id from video and chunk", func(t *testing.T) {
		assert.Equal(t, "v1_chunk_0", NewRecordID("v1", 0))
		assert.Equal(t, "abc_chunk_12", NewRecordID("abc", 12))
	})

	t.Run("Same input always yields the same id", func(t *testing.T) {
		first := NewRecordID("video", 3)
		second := NewRecordID("video", 3)

		assert.Equal(t, first, second)
	})
}

func TestErrors(t *testing.T) {
	t.Run("ConfigurationError names the missing setting", func(t *testing.T) {
		err := &ConfigurationError{Setting: "OPENAI_API_KEY"}

		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("ProviderError unwraps to its cause", func(t *testing.T) {
		cause := assert.AnError
		err := &ProviderError{Provider: "openai", Err: cause}

		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "openai")
	})
}
