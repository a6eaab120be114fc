package secrets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/killfeed/deploy-tools/internal/ordered"
)

var (
	// ErrInvalidJSON is returned when secret source output isn't JSON.
	ErrInvalidJSON = errors.New("invalid JSON")

	// ErrSecretShape is returned when secret source output is JSON, but not
	// one of the accepted shapes.
	ErrSecretShape = errors.New("unexpected secrets format")
)

// Secret is one fetched key/value pair.
type Secret struct {
	Key   string
	Value string
}

// Set is an ordered collection of secrets. Setting a key twice keeps the
// first position and the last value.
type Set = ordered.MapSS

// NewSet returns a Set holding the given secrets in order.
func NewSet(secrets ...Secret) *Set {
	set := ordered.NewMap[string, string](len(secrets))
	for _, s := range secrets {
		set.Set(s.Key, s.Value)
	}
	return set
}

// ParseJSON parses secrets in either of the shapes the infisical CLI emits:
//
//	[{"secretKey": "DB_URL", "secretValue": "postgres://..."}, ...]
//	{"DB_URL": "postgres://...", ...}
//
// Elements of the list form may carry other fields, which are ignored. Every
// key and value must be a string.
func ParseJSON(data []byte) (*Set, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	switch probe.(type) {
	case []any:
		return parseList(data)
	case map[string]any:
		return parseObject(data)
	default:
		return nil, fmt.Errorf("%w: want a list or an object at the top level, got %s", ErrSecretShape, jsonKind(probe))
	}
}

func parseList(data []byte) (*Set, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	set := ordered.NewMap[string, string](len(elems))
	for i, raw := range elems {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrSecretShape, i)
		}
		key, err := stringField(fields, "secretKey")
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", ErrSecretShape, i, err)
		}
		value, err := stringField(fields, "secretValue")
		if err != nil {
			return nil, fmt.Errorf("%w: element %d (%s): %w", ErrSecretShape, i, key, err)
		}
		set.Set(key, value)
	}
	return set, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("missing %q", name)
	}
	s, ok := jsonString(raw)
	if !ok {
		return "", fmt.Errorf("%q is not a string", name)
	}
	return s, nil
}

// jsonString decodes raw if it is a JSON string. Unmarshal alone would accept
// null.
func jsonString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// parseObject walks the object token by token, since decoding into a Go map
// would lose the key order.
func parseObject(data []byte) (*Set, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	set := ordered.NewMap[string, string](0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}
		// Object keys are always strings.
		key := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}
		value, ok := jsonString(raw)
		if !ok {
			return nil, fmt.Errorf("%w: value of %q is not a string", ErrSecretShape, key)
		}
		set.Set(key, value)
	}
	return set, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	default:
		return fmt.Sprintf("%T", v)
	}
}
