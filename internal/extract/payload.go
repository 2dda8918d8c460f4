package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a surrounding markdown code fence (``` or ```json)
// from a payload. Providers that chat through an LLM often wrap their JSON.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		// drop the language tag on the opening fence line
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// DecodeFields coerces a raw textual payload into the structured mapping the
// rest of the pipeline consumes. A decode failure carries the parser's
// diagnostic so callers can distinguish it from an empty result.
func DecodeFields(raw string) (map[string]any, error) {
	s := StripFences(raw)
	if s == "" {
		return nil, fmt.Errorf("empty payload")
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return fields, nil
}
