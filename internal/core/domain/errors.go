package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or chunk type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Parsing Errors.

	// ErrUnreadableDocument indicates no page of the PDF yielded extractable text.
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrEmptyDocument indicates parsing succeeded but produced no paragraphs.
	// The document is marked failed and not retried.
	ErrEmptyDocument = errors.New("empty document")

	// ErrInvalidChunkConfig indicates window <= overlap or a negative overlap.
	ErrInvalidChunkConfig = errors.New("invalid chunk config")

	// Index Errors.

	// ErrDimensionMismatch indicates a vector length differs from the index dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrArityMismatch indicates the number of vectors differs from the number of entries.
	ErrArityMismatch = errors.New("arity mismatch")

	// ErrIndexNotFound indicates a persisted index artifact is missing.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexCorrupt indicates the vector file and metadata sidecar disagree.
	ErrIndexCorrupt = errors.New("index corrupt")

	// Capability Errors.

	// ErrEmbeddingCapability indicates the embedding provider failed.
	// Retryable during ingestion.
	ErrEmbeddingCapability = errors.New("embedding capability error")

	// ErrGenerativeCapability indicates the text generation provider failed.
	// Year inference treats it as "no year".
	ErrGenerativeCapability = errors.New("generative capability error")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Ingestion Errors.

	// ErrQueueClosed indicates a submission after the ingestion queue was closed.
	ErrQueueClosed = errors.New("ingestion queue closed")
)

// IsTerminal reports whether an ingestion error must not be retried.
// Parse failures and index misuse are deterministic for the same bytes,
// so repeating the attempt cannot succeed.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUnreadableDocument) ||
		errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrInvalidChunkConfig) ||
		errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrArityMismatch)
}
