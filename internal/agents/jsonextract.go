package agents

import (
	"encoding/json"
	"errors"
	"strings"

	"codeplay/internal/ai"
)

var errNoJSONObject = errors.New("no JSON object found in model output")

// decodeModelJSON recovers a JSON object from model output that may carry
// code fences, leading prose or trailing garbage. It tries the whole text,
// then the first balanced object, then everything from the first '{' to
// the last '}'.
func decodeModelJSON(text string, v interface{}) error {
	text = strings.TrimSpace(ai.StripCodeFences(text))
	if text == "" {
		return errNoJSONObject
	}

	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}

	if obj, ok := firstBalancedObject(text); ok {
		if json.Unmarshal([]byte(obj), v) == nil {
			return nil
		}
	}

	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if json.Unmarshal([]byte(text[start:end+1]), v) == nil {
			return nil
		}
	}
	return err
}

// firstBalancedObject scans for the first complete {...} while ignoring
// braces inside JSON strings
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
