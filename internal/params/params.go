// Package params models the six tunable generation knobs and their intake
// from loosely-typed sources such as CLI flags, MCP tool arguments, and
// hand-edited persona configs.
package params

import (
	"encoding/json"
	"strconv"

	"github.com/voxworks/voxbench/internal/core"
)

// Slider ranges as presented by the workbench UI surfaces. Values outside
// these ranges are passed through to the collaborator unchanged; only
// presence and numeric-ness are enforced here.
const (
	RepetitionPenaltyMin = 1.0
	RepetitionPenaltyMax = 2.0
	MinPMin              = 0.0
	MinPMax              = 1.0
	TopPMin              = 0.0
	TopPMax              = 1.0
	ExaggerationMin      = 0.0
	ExaggerationMax      = 1.0
	CfgWeightMin         = 0.0
	CfgWeightMax         = 1.0
	TemperatureMin       = 0.1
	TemperatureMax       = 2.0
)

// Default values applied when a persona config omits a field.
const (
	DefaultRepetitionPenalty = 1.2
	DefaultMinP              = 0.05
	DefaultTopP              = 1.0
	DefaultExaggeration      = 0.5
	DefaultCfgWeight         = 0.5
	DefaultTemperature       = 0.8
)

// Field keys, shared with the persona config file format.
const (
	KeyRepetitionPenalty = "repetition_penalty"
	KeyMinP              = "min_p"
	KeyTopP              = "top_p"
	KeyExaggeration      = "exaggeration"
	KeyCfgWeight         = "cfg_weight"
	KeyTemperature       = "temperature"
)

// Set holds the generation configuration passed to the collaborator.
type Set struct {
	RepetitionPenalty float64 `json:"repetition_penalty"`
	MinP              float64 `json:"min_p"`
	TopP              float64 `json:"top_p"`
	Exaggeration      float64 `json:"exaggeration"`
	CfgWeight         float64 `json:"cfg_weight"`
	Temperature       float64 `json:"temperature"`
}

// Defaults returns the documented default parameter set.
func Defaults() Set {
	return Set{
		RepetitionPenalty: DefaultRepetitionPenalty,
		MinP:              DefaultMinP,
		TopP:              DefaultTopP,
		Exaggeration:      DefaultExaggeration,
		CfgWeight:         DefaultCfgWeight,
		Temperature:       DefaultTemperature,
	}
}

// FromValues builds a Set from a loosely-typed key-value record. Every field
// must be present and numeric; a missing key or a non-numeric value is a
// usage error. Numbers may arrive as float64, int, json.Number, or string
// depending on how the caller serialized them.
func FromValues(values map[string]any) (Set, error) {
	var s Set

	fields := []struct {
		key string
		dst *float64
	}{
		{KeyRepetitionPenalty, &s.RepetitionPenalty},
		{KeyMinP, &s.MinP},
		{KeyTopP, &s.TopP},
		{KeyExaggeration, &s.Exaggeration},
		{KeyCfgWeight, &s.CfgWeight},
		{KeyTemperature, &s.Temperature},
	}

	for _, f := range fields {
		raw, ok := values[f.key]
		if !ok {
			return Set{}, core.NewValidationError(f.key, "parameter is required")
		}

		v, ok := coerceFloat(raw)
		if !ok {
			return Set{}, core.NewValidationError(f.key, "parameter must be numeric")
		}

		*f.dst = v
	}

	return s, nil
}

// Values returns the set as a key-value record using the config-file keys.
func (s Set) Values() map[string]any {
	return map[string]any{
		KeyRepetitionPenalty: s.RepetitionPenalty,
		KeyMinP:              s.MinP,
		KeyTopP:              s.TopP,
		KeyExaggeration:      s.Exaggeration,
		KeyCfgWeight:         s.CfgWeight,
		KeyTemperature:       s.Temperature,
	}
}

// coerceFloat converts the numeric encodings produced by JSON decoding and
// flag parsing into float64.
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
