package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrNoJSON is returned when a reply contains no brace-delimited object.
var ErrNoJSON = errors.New("no JSON object found in model response")

var (
	fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	bareJSON   = regexp.MustCompile(`(?s)(\{.*?\})`)
)

// ExtractJSON returns the JSON object embedded in text. A ```json fenced
// block wins; otherwise the first (shortest) brace-delimited substring is
// used.
func ExtractJSON(text string) (string, error) {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1], nil
	}
	if m := bareJSON.FindStringSubmatch(text); m != nil {
		return m[1], nil
	}
	return "", ErrNoJSON
}

// DecodeJSON extracts the object from text and unmarshals it into v.
func DecodeJSON(text string, v any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}

// StringField returns m[key] rendered as text, or def when absent or null.
func StringField(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
