// Package extract pulls structured payloads out of model output.
//
// Models frequently wrap JSON in a markdown code fence with an optional
// language tag. This package is a pure string transform and has no
// knowledge of transports or agents.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// fencedJSON matches a fenced code block with an optional "json" tag and
// captures the object inside. (?s) lets the object span lines.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// JSONFromMarkdown returns the JSON payload candidate in text. If a fenced
// block is found its interior is returned; otherwise the whole string is
// assumed to be the payload.
func JSONFromMarkdown(text string) string {
	if match := fencedJSON.FindStringSubmatch(text); match != nil {
		return match[1]
	}
	return text
}

// ParseJSON extracts the payload candidate from text and decodes it.
// A decode failure is a normal, reported condition carrying the raw text.
func ParseJSON(text string) (map[string]any, error) {
	candidate := JSONFromMarkdown(text)

	var payload map[string]any
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse structured payload: %w", err)
	}
	return payload, nil
}
