// Package guardrail validates structured deltas proposed by the model before
// they are allowed anywhere near persistent state. The model is untrusted:
// everything it emits is shape-checked against a closed set of JSON node
// kinds, with size and depth caps.
package guardrail

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultMaxChars = 8000
	DefaultMaxDepth = 8
)

var (
	ErrEmptyDelta  = errors.New("delta is empty")
	ErrNotAnObject = errors.New("delta must be a JSON object")
)

// ValidateDelta parses and shape-checks a proposed state delta. The text must
// be a JSON object no larger than maxChars, nested no deeper than maxDepth
// (the root object counts as depth 1), with values drawn only from null,
// string, number, boolean, array, and object. Validation is pure: it either
// returns the parsed object or a descriptive error, and mutates nothing.
func ValidateDelta(text string, maxChars, maxDepth int) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyDelta
	}
	if len(trimmed) > maxChars {
		return nil, fmt.Errorf("delta too large (>%d chars)", maxChars)
	}

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return nil, fmt.Errorf("delta is not valid JSON: %w", err)
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, ErrNotAnObject
	}

	if err := checkNode(obj, 1, maxDepth); err != nil {
		return nil, err
	}
	return obj, nil
}

// Validate applies the default size and depth caps.
func Validate(text string) (map[string]any, error) {
	return ValidateDelta(text, DefaultMaxChars, DefaultMaxDepth)
}

// checkNode walks the parsed value. Every node counts toward depth, scalar
// leaves included; the root object is depth 1.
func checkNode(value any, depth, maxDepth int) error {
	if depth > maxDepth {
		return fmt.Errorf("delta nested too deep (>%d levels)", maxDepth)
	}

	switch v := value.(type) {
	case nil, bool, string, float64, json.Number:
		return nil
	case []any:
		for _, item := range v {
			if err := checkNode(item, depth+1, maxDepth); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		for _, item := range v {
			if err := checkNode(item, depth+1, maxDepth); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("delta contains unsupported value type %T", value)
	}
}
