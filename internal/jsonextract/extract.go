// Package jsonextract pulls a JSON object out of free-form model output.
package jsonextract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	ErrNoJSON = errors.New("no JSON found in response")

	fenceRe = regexp.MustCompile("```(?:json|JSON)?")
)

// Extract strips Markdown fences, takes the first top-level {...} span and
// parses it. If strict parsing fails the span is run through a syntax
// repair pass, and failing that the whole cleaned text is.
// Only the first object is considered; the shape is not validated.
func Extract(text string) (map[string]any, error) {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))

	span, ok := firstObject(cleaned)
	if !ok {
		return nil, ErrNoJSON
	}

	if obj, err := decode(span); err == nil {
		return obj, nil
	}

	if obj, err := repairAndDecode(span); err == nil {
		return obj, nil
	}

	obj, err := repairAndDecode(cleaned)
	if err != nil {
		return nil, fmt.Errorf("repair JSON: %w", err)
	}
	return obj, nil
}

// firstObject returns the span from the first '{' to its matching '}'.
// Braces inside string literals are ignored. An unterminated object runs
// to the end of the text so the repair pass can close it.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	var quote byte
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return s[start:], true
}

func repairAndDecode(s string) (map[string]any, error) {
	fixed, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil, err
	}
	return decode(fixed)
}

func decode(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("JSON value is not an object")
	}
	return obj, nil
}
