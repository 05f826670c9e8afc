package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Payloads arriving from the agent and scheduler are loosely typed JSON. The
// helpers below read one field each and fall back to the supplied default when
// the field is absent, null, or of a type that cannot be coerced.

// StringField reads key as text
func StringField(m map[string]any, key, fallback string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return fallback
	}
}

func floatField(m map[string]any, key string, fallback float64) float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fallback
		}
		return t
	case int:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return fallback
}

func intField(m map[string]any, key string, fallback int) int {
	f := floatField(m, key, math.NaN())
	if math.IsNaN(f) {
		return fallback
	}
	return int(f)
}

// BoolField reads key as a boolean
func BoolField(m map[string]any, key string, fallback bool) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
	}
	return fallback
}

func optionalString(m map[string]any, key string) *string {
	v, ok := m[key].(string)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func optionalBool(m map[string]any, key string) *bool {
	v, ok := m[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

// ErrMalformedReply marks a reply body that is not a JSON object
var ErrMalformedReply = errors.New("reply is not a JSON object")

// DecodeReply parses a remote reply body into a JSON object. Field values are
// left untyped; callers read them through the field helpers.
func DecodeReply(body []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}
	if out == nil {
		return nil, ErrMalformedReply
	}
	return out, nil
}

// AsObject normalizes an opaque payload into a JSON object. Strings are
// parsed as JSON after stripping a surrounding markdown code fence, which
// agents sometimes wrap structured output in.
func AsObject(payload any) (map[string]any, error) {
	switch v := payload.(type) {
	case map[string]any:
		return v, nil
	case string:
		var out map[string]any
		if err := json.Unmarshal([]byte(stripFence(v)), &out); err != nil {
			return nil, fmt.Errorf("payload is not a JSON object: %w", err)
		}
		if out == nil {
			return nil, fmt.Errorf("payload is null")
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("payload is missing")
	default:
		return nil, fmt.Errorf("payload has unexpected type %T", payload)
	}
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
