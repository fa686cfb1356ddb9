package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_Value(t *testing.T) {
	t.Run("Value returns marshaled JSON", func(t *testing.T) {
		m := Metadata{
			"start_offset": 900,
			"end_offset":   1900,
			"length":       1000,
		}

		value, err := m.Value()

		require.NoError(t, err)
		bytes, ok := value.([]byte)
		require.True(t, ok)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(bytes, &result))
		assert.Equal(t, float64(900), result["start_offset"]) // JSON numbers become float64
		assert.Equal(t, float64(1900), result["end_offset"])
	})

	t.Run("Value of empty metadata is an empty object", func(t *testing.T) {
		m := Metadata{}

		value, err := m.Value()

		require.NoError(t, err)
		assert.Equal(t, []byte("{}"), value)
	})
}

func TestMetadata_Scan(t *testing.T) {
	t.Run("Scan from JSON bytes", func(t *testing.T) {
		var m Metadata

		err := m.Scan([]byte(`{"start_offset":0,"length":600}`))

		require.NoError(t, err)
		assert.Equal(t, float64(0), m["start_offset"])
		assert.Equal(t, float64(600), m["length"])
	})

	t.Run("Scan from nil yields empty metadata", func(t *testing.T) {
		var m Metadata

		err := m.Scan(nil)

		require.NoError(t, err)
		assert.NotNil(t, m)
		assert.Len(t, m, 0)
	})

	t.Run("Scan from Metadata copies directly", func(t *testing.T) {
		var m Metadata

		err := m.Scan(Metadata{"length": 600})

		require.NoError(t, err)
		assert.Equal(t, 600, m["length"])
	})

	t.Run("Scan rejects non-byte values", func(t *testing.T) {
		var m Metadata

		err := m.Scan(12345)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "type assertion")
	})

	t.Run("Scan rejects malformed JSON", func(t *testing.T) {
		var m Metadata

		err := m.Scan([]byte(`{not json}`))

		require.Error(t, err)
	})
}

func TestMetadata_RoundTrip(t *testing.T) {
	t.Run("Value then Scan preserves chunk metadata", func(t *testing.T) {
		original := Metadata{
			"start_offset": 1800,
			"end_offset":   2800,
			"length":       1000,
		}

		value, err := original.Value()
		require.NoError(t, err)

		var restored Metadata
		require.NoError(t, restored.Scan(value))

		assert.Equal(t, float64(1800), restored["start_offset"])
		assert.Equal(t, float64(2800), restored["end_offset"])
		assert.Equal(t, float64(1000), restored["length"])
	})
}
