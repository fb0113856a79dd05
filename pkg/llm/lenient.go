package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var reTrailingComma = regexp.MustCompile(`,\s*([\}\]])`)

// ExtractObject pulls a best-effort JSON object out of raw model output.
//
// Models wrap JSON in prose or markdown fences, drop closing braces when
// truncated, and leave trailing commas. The repair steps, in order: slice
// from the first '{' to the last '}' (or end of text when '}' is missing),
// strip trailing commas before closers, and append closing braces until the
// counts balance. Returns an error only when no object can be recovered.
func ExtractObject(text string) ([]byte, error) {
	start := strings.Index(text, "{")
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	end := strings.LastIndex(text, "}")
	var jsonStr string
	if end == -1 || end < start {
		jsonStr = text[start:]
	} else {
		jsonStr = text[start : end+1]
	}

	jsonStr = reTrailingComma.ReplaceAllString(jsonStr, "$1")

	if open, closed := strings.Count(jsonStr, "{"), strings.Count(jsonStr, "}"); open > closed {
		jsonStr += strings.Repeat("}", open-closed)
	}

	if !json.Valid([]byte(jsonStr)) {
		return nil, fmt.Errorf("response is not recoverable JSON")
	}

	return []byte(jsonStr), nil
}

// DecodeObject extracts a JSON object from raw model output and unmarshals
// it into v.
func DecodeObject(text string, v any) error {
	data, err := ExtractObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode repaired JSON: %w", err)
	}
	return nil
}
