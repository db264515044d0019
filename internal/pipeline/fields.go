package pipeline

import (
	"fmt"
	"strings"
)

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	case []any:
		return strings.Join(stringList(v), "; ")
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func stringListField(m map[string]any, key string) []string {
	v, ok := m[key].([]any)
	if !ok {
		return []string{}
	}
	return stringList(v)
}

func stringList(v []any) []string {
	out := make([]string, 0, len(v))
	for _, item := range v {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// scoreField reads a confidence score. Anything that is not a JSON number
// in [0,1] becomes 0.5.
func scoreField(m map[string]any, key string) float64 {
	v, ok := m[key].(float64)
	if !ok || v < 0 || v > 1 {
		return 0.5
	}
	return v
}
