package driven

import "context"

// TextExtractor turns uploaded bytes of a specific MIME type into plain text.
type TextExtractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Extract converts the raw bytes into text.
	Extract(ctx context.Context, data []byte) (string, error)
}
