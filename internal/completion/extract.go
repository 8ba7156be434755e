package completion

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls the JSON payload out of a completion reply. Models wrap
// their output in code fences or surround it with prose, so after stripping
// fences we take the first balanced [...] or {...} substring.
func ExtractJSON(s string) (string, error) {
	s = stripCodeFences(s)

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return "", fmt.Errorf("no JSON array or object in response")
	}

	end, err := matchBracket(s, start)
	if err != nil {
		return "", err
	}
	return s[start : end+1], nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// matchBracket returns the index of the bracket closing the one at start,
// skipping brackets inside JSON string literals.
func matchBracket(s string, start int) (int, error) {
	open := s[start]
	var close byte = ']'
	if open == '{' {
		close = '}'
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced %q in response", string(open))
}
