package handlers

import (
	"encoding/json"
	"strings"
)

// The catalog API historically accepted categories, attributes and image
// lists as either structured JSON values or raw strings. Each parser resolves
// that union in a fixed order: structured value, then JSON-encoded string,
// then (for lists) a comma-separated string.

func parseStringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(val) == "" {
			return []string{}
		}
		var decoded []string
		if err := json.Unmarshal([]byte(val), &decoded); err == nil {
			return decoded
		}
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	default:
		return []string{}
	}
}

// parseAttributes never fails: anything that is not an object or a valid
// JSON-encoded object becomes an empty attribute map.
func parseAttributes(v any) map[string]any {
	switch val := v.(type) {
	case map[string]any:
		return val
	case string:
		var decoded map[string]any
		if err := json.Unmarshal([]byte(val), &decoded); err == nil && decoded != nil {
			return decoded
		}
		return map[string]any{}
	default:
		return map[string]any{}
	}
}
