package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRetryable indicates a transient service failure.
	// Callers retry a bounded number of times before surfacing it.
	ErrRetryable = errors.New("transient service failure")

	// ErrStaleIndex indicates a query-time freshness precondition failed.
	// Fatal unless the caller explicitly opts into stale operation.
	ErrStaleIndex = errors.New("index is stale")

	// ErrConfiguration indicates the manifest was written under a different
	// model or chunking configuration than the current run's.
	ErrConfiguration = errors.New("index configuration mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic scoring is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrExtractorUnavailable indicates no text extractor is configured.
	// Slide-deck sources cannot be indexed without one.
	ErrExtractorUnavailable = errors.New("text extractor unavailable")
)
