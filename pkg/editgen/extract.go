package editgen

import (
	"encoding/json"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🔍 ExtractJSON pulls the instruction object out of a model response.
// A fenced code block is preferred; failing that, the first balanced
// top-level JSON object in the text is taken.
func ExtractJSON(s string) ([]byte, error) {
	if block, ok := fencedBlock(s); ok {
		if json.Valid([]byte(block)) {
			return []byte(block), nil
		}
	}
	if obj, ok := balancedObject(s); ok {
		if json.Valid([]byte(obj)) {
			return []byte(obj), nil
		}
	}
	return nil, errors.Errorf("no valid JSON object found in model output")
}

// fencedBlock returns the body of the first ``` fence, tolerating an
// optional language tag.
func fencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// drop the "json" (or any) language tag line
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedObject scans for the first '{' and returns the text up to its
// matching close brace, respecting string literals and escapes.
func balancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
