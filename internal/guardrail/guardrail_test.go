package guardrail

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDelta(t *testing.T) {
	t.Run("valid flat object", func(t *testing.T) {
		obj, err := Validate(`{"hp": 12, "name": "Mira", "alive": true, "note": null}`)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if obj["hp"].(float64) != 12 {
			t.Fatalf("unexpected hp: %v", obj["hp"])
		}
	})

	t.Run("valid nested object with arrays", func(t *testing.T) {
		obj, err := Validate(`{"inventory": {"potions": [1, 2], "gold": 30}}`)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := obj["inventory"].(map[string]any); !ok {
			t.Fatalf("expected nested object, got %T", obj["inventory"])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Validate("   \n\t ")
		if !errors.Is(err, ErrEmptyDelta) {
			t.Fatalf("expected ErrEmptyDelta, got %v", err)
		}
	})

	t.Run("oversized input", func(t *testing.T) {
		big := `{"k": "` + strings.Repeat("x", 100) + `"}`
		_, err := ValidateDelta(big, 50, DefaultMaxDepth)
		if err == nil || !strings.Contains(err.Error(), "too large") {
			t.Fatalf("expected size error, got %v", err)
		}
	})

	t.Run("top-level array rejected", func(t *testing.T) {
		_, err := Validate(`[1, 2, 3]`)
		if !errors.Is(err, ErrNotAnObject) {
			t.Fatalf("expected ErrNotAnObject, got %v", err)
		}
	})

	t.Run("top-level scalar rejected", func(t *testing.T) {
		_, err := Validate(`42`)
		if !errors.Is(err, ErrNotAnObject) {
			t.Fatalf("expected ErrNotAnObject, got %v", err)
		}
	})

	t.Run("non-string key is a parse error", func(t *testing.T) {
		_, err := Validate(`{1: "x"}`)
		if err == nil || err.Error() == "" {
			t.Fatalf("expected parse error, got %v", err)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := Validate(`{"hp": `)
		if err == nil || !strings.Contains(err.Error(), "not valid JSON") {
			t.Fatalf("expected JSON error, got %v", err)
		}
	})

	t.Run("depth cap", func(t *testing.T) {
		// Root is depth 1 and the scalar leaf sits at depth 5.
		nested := `{"a": {"b": {"c": {"d": 1}}}}`
		if _, err := ValidateDelta(nested, DefaultMaxChars, 4); err == nil {
			t.Fatalf("expected depth error")
		}
		if _, err := ValidateDelta(nested, DefaultMaxChars, 5); err != nil {
			t.Fatalf("expected no error at sufficient depth, got %v", err)
		}
	})

	t.Run("scalar leaves count toward depth", func(t *testing.T) {
		// maxDepth nested objects put the leaf one level past the cap.
		deep := strings.Repeat(`{"k":`, DefaultMaxDepth) + "1" + strings.Repeat("}", DefaultMaxDepth)
		_, err := Validate(deep)
		if err == nil || !strings.Contains(err.Error(), "too deep") {
			t.Fatalf("expected depth error, got %v", err)
		}
	})

	t.Run("arrays count toward depth", func(t *testing.T) {
		nested := `{"a": [[1]]}`
		if _, err := ValidateDelta(nested, DefaultMaxChars, 3); err == nil {
			t.Fatalf("expected depth error")
		}
		if _, err := ValidateDelta(nested, DefaultMaxChars, 4); err != nil {
			t.Fatalf("expected no error at sufficient depth, got %v", err)
		}
	})

	t.Run("distinct error messages", func(t *testing.T) {
		cases := []string{`[1]`, `{"a`, ``}
		seen := map[string]bool{}
		for _, c := range cases {
			_, err := Validate(c)
			if err == nil {
				t.Fatalf("expected error for %q", c)
			}
			if seen[err.Error()] {
				t.Fatalf("duplicate error message %q", err.Error())
			}
			seen[err.Error()] = true
		}
	})
}
