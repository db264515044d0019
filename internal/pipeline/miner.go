package pipeline

import (
	"regexp"
	"strings"
)

// MineField scrapes a "field: value" pair out of prose when the model did
// not return parseable JSON. Patterns are tried loosest-first on the label,
// then quoted JSON-ish, then up to the first sentence break.
func MineField(text, field, fallback string) string {
	name := regexp.QuoteMeta(field)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?i)` + name + `[:\s]+([^\n,]+)`),
		regexp.MustCompile(`(?i)"` + name + `"[:\s]*"([^"]+)"`),
		regexp.MustCompile(`(?i)` + name + `[:\s]*([^\n,.]+)`),
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			if v := strings.Trim(strings.TrimSpace(m[1]), `"*`); v != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return fallback
}
