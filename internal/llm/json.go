package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is returned when the model answered with nothing usable.
var ErrEmptyResponse = errors.New("empty LLM response")

// StripCodeFence removes markdown code fences and any prose around the first
// JSON object in text.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	// Strip markdown code fences
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines)
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
	}

	if strings.HasPrefix(text, "{") {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// DecodeJSON strips incidental formatting from an LLM response and decodes
// the JSON payload into v.
func DecodeJSON(text string, v any) error {
	payload := StripCodeFence(text)
	if payload == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("parsing LLM response as JSON: %w", err)
	}
	return nil
}
