package params

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxworks/voxbench/internal/core"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, 1.2, d.RepetitionPenalty)
	assert.Equal(t, 0.05, d.MinP)
	assert.Equal(t, 1.0, d.TopP)
	assert.Equal(t, 0.5, d.Exaggeration)
	assert.Equal(t, 0.5, d.CfgWeight)
	assert.Equal(t, 0.8, d.Temperature)
}

func TestFromValues(t *testing.T) {
	t.Run("all floats", func(t *testing.T) {
		s, err := FromValues(map[string]any{
			"repetition_penalty": 1.5,
			"min_p":              0.1,
			"top_p":              0.9,
			"exaggeration":       0.7,
			"cfg_weight":         0.3,
			"temperature":        1.1,
		})
		require.NoError(t, err)
		assert.Equal(t, 1.5, s.RepetitionPenalty)
		assert.Equal(t, 0.9, s.TopP)
		assert.Equal(t, 1.1, s.Temperature)
	})

	t.Run("mixed encodings", func(t *testing.T) {
		// Sliders serialized over JSON or flags can deliver ints, strings,
		// or json.Number instead of floats.
		s, err := FromValues(map[string]any{
			"repetition_penalty": 1,
			"min_p":              "0.05",
			"top_p":              json.Number("1.0"),
			"exaggeration":       float32(0.5),
			"cfg_weight":         int64(1),
			"temperature":        "0.8",
		})
		require.NoError(t, err)
		assert.Equal(t, 1.0, s.RepetitionPenalty)
		assert.Equal(t, 0.05, s.MinP)
		assert.Equal(t, 1.0, s.TopP)
		assert.Equal(t, 1.0, s.CfgWeight)
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := FromValues(map[string]any{
			"repetition_penalty": 1.2,
			"min_p":              0.05,
			"top_p":              1.0,
			"exaggeration":       0.5,
			"cfg_weight":         0.5,
			// temperature absent
		})
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))
		assert.Contains(t, err.Error(), "temperature")
	})

	t.Run("non-numeric field", func(t *testing.T) {
		_, err := FromValues(map[string]any{
			"repetition_penalty": 1.2,
			"min_p":              0.05,
			"top_p":              1.0,
			"exaggeration":       0.5,
			"cfg_weight":         "warm",
			"temperature":        0.8,
		})
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))
		assert.Contains(t, err.Error(), "cfg_weight")
	})

	t.Run("nil value", func(t *testing.T) {
		_, err := FromValues(map[string]any{
			"repetition_penalty": 1.2,
			"min_p":              nil,
			"top_p":              1.0,
			"exaggeration":       0.5,
			"cfg_weight":         0.5,
			"temperature":        0.8,
		})
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))
	})
}

func TestValuesRoundTrip(t *testing.T) {
	s := Set{
		RepetitionPenalty: 1.3,
		MinP:              0.02,
		TopP:              0.95,
		Exaggeration:      0.6,
		CfgWeight:         0.4,
		Temperature:       0.9,
	}

	back, err := FromValues(s.Values())
	require.NoError(t, err)
	assert.Equal(t, s, back)
}
