package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDocument indicates a document that cannot be indexed
	// (empty content, missing source, bad page number). Per-document
	// and non-fatal: the rest of the batch continues.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrUnsupportedType indicates an unknown file or normaliser type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrFileTooLarge indicates an upload above the configured size cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Question refinement degrades to the raw message without it;
	// answer generation is disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or failed. Non-fatal for chunking (the document is
	// skipped) and for queries (retrieval degrades to lexical only).
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch indicates an embedding whose length differs
	// from the dense index's fixed dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexDesync indicates the dense and sparse chunk populations
	// diverged and rollback failed. Fatal for the affected session:
	// every subsequent operation fails until the session is destroyed.
	ErrIndexDesync = errors.New("indices desynchronised")

	// ErrSessionNotFound indicates an unknown session identifier.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed indicates an operation on a destroyed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrTimeout indicates an external call exceeded its per-call
	// deadline. Surfaced to the caller; never retried internally.
	ErrTimeout = errors.New("operation timed out")
)
