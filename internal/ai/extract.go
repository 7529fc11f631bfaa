package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smart-grid-ai/internal/domain"
)

// Extract recovers a JSON value from a model reply. Attempts run in order and
// the first success wins:
//  1. the whole reply
//  2. the reply with markdown code fences removed
//  3. the first balanced {...} (or [...] for ShapeArray) region
//
// Malformed JSON is not repaired. The result is a map[string]any or []any.
func Extract(reply string, shape Shape) (any, error) {
	if v, ok := parseContainer(reply); ok {
		return v, nil
	}

	if inner, ok := stripFences(reply); ok {
		if v, ok := parseContainer(inner); ok {
			return v, nil
		}
	}

	opener, closer := byte('{'), byte('}')
	if shape == ShapeArray {
		opener, closer = '[', ']'
	}
	if region := balancedRegion(reply, opener, closer); region != "" {
		if v, ok := parseContainer(region); ok {
			return v, nil
		}
	}

	return nil, domain.WrapError("extract_json",
		fmt.Errorf("%w: no parseable JSON in reply %q", domain.ErrExtraction, truncate(reply, 120)), false)
}

// parseContainer parses s as a JSON object or array.
func parseContainer(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	default:
		return nil, false
	}
}

// stripFences returns the content of the first ``` fenced block, dropping an
// optional language tag on the opening fence. An unterminated fence yields
// everything after the opener.
func stripFences(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start == -1 {
		return "", false
	}
	rest := s[start+3:]

	// Language tag runs to the end of the opening line.
	if nl := strings.IndexByte(rest, '\n'); nl != -1 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}

	if end := strings.Index(rest, "```"); end != -1 {
		rest = rest[:end]
	}
	return rest, true
}

// balancedRegion returns the first substring of s that starts at opener and
// ends at its matching closer, skipping delimiters inside string literals.
func balancedRegion(s string, opener, closer byte) string {
	start := strings.IndexByte(s, opener)
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
