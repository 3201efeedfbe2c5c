package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown provider, backend or MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates no language model could be resolved for a request.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrStoreUnavailable indicates the entry store backend cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrMalformedOutput indicates the model returned text that holds no JSON object.
	// Stages recover from it locally with a fallback payload.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrNoHandler indicates a routing target has no registered handler.
	ErrNoHandler = errors.New("no handler for routing target")

	// ErrRateLimited indicates the local request budget for a provider is exhausted.
	ErrRateLimited = errors.New("rate limited")
)
