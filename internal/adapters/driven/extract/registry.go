// Package extract turns uploaded files into text for the pipeline.
package extract

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"strings"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// Registry maps MIME types to the extractor that handles them.
type Registry struct {
	byMIME map[string]driven.TextExtractor
}

// NewRegistry creates a registry holding the given extractors.
// A later extractor wins when two claim the same MIME type.
func NewRegistry(extractors ...driven.TextExtractor) *Registry {
	r := &Registry{byMIME: make(map[string]driven.TextExtractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor under each of its MIME types.
func (r *Registry) Register(e driven.TextExtractor) {
	for _, m := range e.SupportedMIMETypes() {
		r.byMIME[strings.ToLower(m)] = e
	}
}

// Lookup returns the extractor for contentType, ignoring parameters such as charset.
func (r *Registry) Lookup(contentType string) (driven.TextExtractor, bool) {
	mediaType := normalise(contentType)
	if mediaType == "" {
		return nil, false
	}
	e, ok := r.byMIME[mediaType]
	return e, ok
}

// Extract runs the extractor registered for contentType.
func (r *Registry) Extract(ctx context.Context, contentType string, data []byte) (string, error) {
	e, ok := r.Lookup(contentType)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, contentType)
	}
	return e.Extract(ctx, data)
}

// MIMETypes returns all registered MIME types, sorted.
func (r *Registry) MIMETypes() []string {
	types := make([]string, 0, len(r.byMIME))
	for m := range r.byMIME {
		types = append(types, m)
	}
	sort.Strings(types)
	return types
}

func normalise(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}
