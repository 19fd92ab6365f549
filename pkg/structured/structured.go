// Package structured extracts typed values from model output. Models
// asked for JSON routinely wrap it in markdown fences or surround it
// with prose, so extraction is best-effort: when no parseable JSON is
// found the caller gets the raw text back instead of an error.
package structured

import (
	"encoding/json"
	"strings"
)

// Result holds either a parsed value or the raw model output.
// Structured is true when Value was populated from valid JSON.
type Result[T any] struct {
	Value      T
	Raw        string
	Structured bool
}

// Parse extracts a T from model output. It strips markdown code
// fences, locates the outermost JSON object, and unmarshals it. On any
// failure the result carries the original text with Structured false.
func Parse[T any](content string) Result[T] {
	res := Result[T]{Raw: content}

	cleaned := stripFences(content)
	candidate := extractObject(cleaned)
	if candidate == "" {
		return res
	}

	var value T
	if err := json.Unmarshal([]byte(candidate), &value); err != nil {
		return res
	}
	res.Value = value
	res.Structured = true
	return res
}

// stripFences removes markdown code fence lines, keeping their content.
func stripFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// extractObject returns the substring from the first '{' to the last
// '}', or "" when no object is present.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
