package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// reFence matches the first markdown code block, with or without a json tag.
var reFence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ExtractJSON pulls a JSON value out of a model reply. If the reply contains a
// fenced code block its body is used, otherwise the whole reply. Surrounding
// whitespace is trimmed before parsing.
func ExtractJSON(content string) (json.RawMessage, error) {
	candidate := content
	if m := reFence.FindStringSubmatch(content); m != nil {
		candidate = m[1]
	}
	candidate = strings.TrimSpace(candidate)

	if candidate == "" || !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("%w: reply is not valid JSON", ErrInvalidResponse)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(candidate)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return buf.Bytes(), nil
}
