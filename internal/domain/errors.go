package domain

import "errors"

var (
	// ErrInvalidQuery signals an empty or unparseable query. The only
	// error that surfaces to the caller as a request failure.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSourceUnavailable signals one failed evidence source; non-fatal,
	// degrades the bundle.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrGenerationUnavailable signals that the generation capability
	// could not produce text.
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrNoRelevantMemory signals that no stored turn cleared the
	// similarity threshold. Treated as an empty result by callers.
	ErrNoRelevantMemory = errors.New("no relevant memory")
	// ErrCollectionNotFound signals a missing vector store collection.
	ErrCollectionNotFound = errors.New("collection not found")
)
