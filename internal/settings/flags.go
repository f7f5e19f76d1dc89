package settings

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Flags is the resolved set of form variant switches.
type Flags struct {
	IframeURLField     bool
	ValidateBeforeSave bool
}

// CurrentFlags resolves the variant switches from the in-memory snapshot.
func CurrentFlags() Flags {
	return Flags{
		IframeURLField:     DBConfigBool(IframeURLFieldKey, DefaultIframeURLField),
		ValidateBeforeSave: DBConfigBool(ValidateBeforeSaveKey, DefaultValidateBeforeSave),
	}
}

// DBConfigBool reads a boolean from the snapshot, returning def when the key is unset.
func DBConfigBool(key string, def bool) bool {
	raw, ok := DBConfigValue(key)
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return def
	}
	return parseDBConfigBool(raw)
}

// parseDBConfigBool parses a boolean from JSON config payloads.
func parseDBConfigBool(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var parsedBool bool
	if errUnmarshalBool := json.Unmarshal(raw, &parsedBool); errUnmarshalBool == nil {
		return parsedBool
	}
	var parsedString string
	if errUnmarshalString := json.Unmarshal(raw, &parsedString); errUnmarshalString == nil {
		trimmed := strings.TrimSpace(parsedString)
		return strings.EqualFold(trimmed, "true") || trimmed == "1" || strings.EqualFold(trimmed, "on")
	}
	var parsedNumber float64
	if errUnmarshalNumber := json.Unmarshal(raw, &parsedNumber); errUnmarshalNumber == nil {
		return parsedNumber != 0
	}
	var wrapper struct {
		Value json.RawMessage `json:"value"`
	}
	if errUnmarshalWrapper := json.Unmarshal(raw, &wrapper); errUnmarshalWrapper == nil {
		if len(wrapper.Value) > 0 {
			return parseDBConfigBool(wrapper.Value)
		}
	}
	return false
}
