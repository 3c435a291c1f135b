package assist

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var errNoJSON = errors.New("no valid JSON found in response")

// fencePattern matches a ```json or bare ``` block
var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// ExtractJSON pulls the first JSON object out of a model response. Fenced
// blocks are tried first, then the first balanced {...} in the text.
func ExtractJSON(response string) (string, error) {
	for _, m := range fencePattern.FindAllStringSubmatch(response, -1) {
		body := strings.TrimSpace(m[1])
		if obj, ok := extractBalancedObject(body); ok && json.Valid([]byte(obj)) {
			return obj, nil
		}
	}

	if obj, ok := extractBalancedObject(response); ok && json.Valid([]byte(obj)) {
		return obj, nil
	}

	trimmed := strings.TrimSpace(response)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}
	return "", errNoJSON
}

// extractBalancedObject returns the first {...} whose braces balance,
// ignoring braces inside JSON strings.
func extractBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
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

// ParseJSONResponse extracts JSON from a response and unmarshals it into T
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	raw, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return result, nil
}
