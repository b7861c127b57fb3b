// Package jsonutil extracts and parses JSON from LLM responses that may be
// wrapped in markdown code fences or embedded in surrounding prose.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripMarkdownFences removes ```json ... ``` or ``` ... ``` wrapping from text.
// Returns the content between the fences, or the original text if no fences are found.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	endIdx := len(lines) - 1
	for i := len(lines) - 1; i >= 1; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}

	// lines[0] is the opening fence (possibly with a language tag).
	return strings.Join(lines[1:endIdx], "\n")
}

// ExtractJSON returns the JSON object or array embedded in text. It finds the
// first { or [ and pairs it with the last matching } or ].
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	objIdx := strings.Index(text, "{")
	arrIdx := strings.Index(text, "[")
	if objIdx == -1 && arrIdx == -1 {
		return "", fmt.Errorf("no JSON content found")
	}

	var startIdx int
	var endChar string
	if arrIdx == -1 || (objIdx != -1 && objIdx <= arrIdx) {
		startIdx = objIdx
		endChar = "}"
	} else {
		startIdx = arrIdx
		endChar = "]"
	}

	text = text[startIdx:]
	endIdx := strings.LastIndex(text, endChar)
	if endIdx == -1 {
		return "", fmt.Errorf("no closing %s found", endChar)
	}
	return text[:endIdx+1], nil
}

// ParseJSON strips markdown fences from raw LLM response text, extracts the
// JSON payload, and unmarshals it into T. All classifier call sites share this
// parse path so malformed model output fails in one well-understood way.
func ParseJSON[T any](raw string) (T, error) {
	var zero T

	jsonStr, err := ExtractJSON(StripMarkdownFences(raw))
	if err != nil {
		return zero, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		preview := jsonStr
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview)
	}
	return result, nil
}
