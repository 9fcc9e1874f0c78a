package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrEmptyInput indicates text that is empty or whitespace-only
	// after normalisation. Nothing can be chunked or indexed from it.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidConfig indicates misconfiguration, such as a chunk
	// overlap at or above the chunk size, or an embedding provider
	// returning a vector of unexpected dimension. Never retried.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbedding indicates the embedding provider failed after retry.
	ErrEmbedding = errors.New("embedding provider failed")

	// ErrSynthesis indicates the generation provider failed after retry.
	ErrSynthesis = errors.New("answer synthesis failed")

	// ErrIndexUnavailable indicates the vector index backend cannot be
	// reached. Distinct from ErrNotFound: a tenant with no entries is a
	// valid empty result, not an error.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrTenantIsolation indicates an index read surfaced an entry
	// belonging to a different tenant. This is an invariant breach, not
	// a recoverable condition: it is raised rather than filtered so a
	// systemic leak cannot hide behind a silent workaround.
	ErrTenantIsolation = errors.New("tenant isolation violated")

	// ErrCancelled indicates the caller cancelled the operation before
	// it completed. No partial result is returned alongside it.
	ErrCancelled = errors.New("operation cancelled")
)
