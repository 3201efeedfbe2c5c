package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

const (
	jsonFence    = "```json"
	genericFence = "```"
)

// ExtractJSON pulls the most plausible JSON object out of free-form model text.
// The steps run in order and compose:
//
//  1. A ```json fenced block yields the text between the tag and the next fence.
//  2. Otherwise a leading generic fence drops the first and last lines.
//  3. Text before the first '{' is discarded.
//  4. Text after the last '}' is discarded.
//
// It never fails; the result may still not be valid JSON.
func ExtractJSON(raw string) string {
	text := strings.TrimSpace(raw)

	if start := strings.Index(text, jsonFence); start >= 0 {
		text = text[start+len(jsonFence):]
		if end := strings.Index(text, genericFence); end >= 0 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	} else if strings.HasPrefix(text, genericFence) {
		lines := strings.Split(text, "\n")
		if len(lines) > 2 {
			text = strings.Join(lines[1:len(lines)-1], "\n")
		} else {
			text = ""
		}
	}

	if !strings.HasPrefix(text, "{") {
		if i := strings.Index(text, "{"); i >= 0 {
			text = text[i:]
		}
	}
	if !strings.HasSuffix(text, "}") {
		if i := strings.LastIndex(text, "}"); i >= 0 {
			text = text[:i+1]
		}
	}

	return text
}

// DecodeModelJSON extracts and parses a single JSON object from model text.
// Any failure wraps domain.ErrMalformedOutput so stages can substitute a fallback.
func DecodeModelJSON(raw string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedOutput, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: null object", domain.ErrMalformedOutput)
	}
	return obj, nil
}

// parseErrorDetail strips the sentinel prefix so fallbacks cite only the parser's complaint.
func parseErrorDetail(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrMalformedOutput.Error()+": ")
}

// truncate returns at most n characters of s without splitting a rune.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
