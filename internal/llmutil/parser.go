// internal/llmutil/parser.go
package llmutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"
)

// ErrMalformedPayload is returned when model text cannot be coerced into the
// requested shape. Callers are expected to recover from it.
var ErrMalformedPayload = errors.New("malformed model payload")

// Regex definitions use \x60 (hex representation) for backticks because Go raw strings cannot contain backticks.

// fencedJSONRegex finds a markdown fence whose interior is a JSON object or array.
var fencedJSONRegex = regexp.MustCompile("(?s)\x60\x60\x60[a-zA-Z]*\\s*([\\{\\[].*?[\\}\\]])\\s*\x60\x60\x60")

// Extract pulls a JSON object or array out of noisy model text. It is a best-effort
// normalizer, not a parser:
//
//  1. text that already starts with '{' or '[' is returned trimmed;
//  2. otherwise the interior of the first fenced block holding JSON is returned;
//  3. otherwise the span from the first opener to the last matching closer;
//  4. otherwise the trimmed text, which will fail to decode downstream.
//
// Extract is idempotent: Extract(Extract(s)) == Extract(s).
func Extract(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return trimmed
	}

	if matches := fencedJSONRegex.FindStringSubmatch(trimmed); len(matches) > 1 {
		return matches[1]
	}

	start := strings.IndexAny(trimmed, "{[")
	if start == -1 {
		return trimmed
	}
	closer := "}"
	if trimmed[start] == '[' {
		closer = "]"
	}
	if end := strings.LastIndex(trimmed, closer); end > start {
		return trimmed[start : end+1]
	}
	return trimmed
}

// ParseJSONResponse extracts the JSON payload from a model response and decodes it
// into T. Every failure wraps ErrMalformedPayload.
func ParseJSONResponse[T any](response string) (*T, error) {
	payload := Extract(response)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedPayload)
	}

	var result T
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("%w: %v. Extracted JSON (truncated): %s", ErrMalformedPayload, err, Truncate(payload, 500))
	}
	return &result, nil
}

// Truncate shortens s to at most maxLen bytes plus an ellipsis, for log fields.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	// Simple truncation; does not account for rune boundaries but sufficient for logging.
	return s[:maxLen] + "..."
}
