package driven

import (
	"context"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

// DenseIndex provides vector similarity search over chunk embeddings.
// One instance exists per session, in memory, and grows append-only as
// documents arrive. The session service keeps it population-synchronised
// with the SparseIndex; Delete exists solely to roll back a partial append.
type DenseIndex interface {
	// Add appends chunks (with their embeddings) to the index. Safe to
	// call repeatedly with disjoint batches. Chunks embedded with a
	// different dimension than the index's fail with ErrDimensionMismatch.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Delete removes a chunk from the index. Used only for rollback of a
	// partially-applied append.
	Delete(ctx context.Context, chunkID string) error

	// Search returns the k most similar chunks to the query embedding,
	// highest similarity first. Equal similarities rank by insertion
	// order, earliest first. An empty index returns an empty result.
	Search(ctx context.Context, query []float32, k int) ([]domain.IndexHit, error)

	// Len returns the number of indexed chunks.
	Len() int

	// ChunkIDs returns all indexed chunk IDs in insertion order.
	ChunkIDs() []string

	// Close releases index memory.
	Close() error
}

// SparseIndex provides lexical (term-frequency) search over chunk text.
// One instance exists per session, in memory, population-synchronised
// with the DenseIndex by the session service.
type SparseIndex interface {
	// Add appends chunks to the index. Safe to call repeatedly with
	// disjoint batches.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Delete removes a chunk from the index. Used only for rollback of a
	// partially-applied append.
	Delete(ctx context.Context, chunkID string) error

	// Search returns the k best lexical matches for the query text,
	// highest score first. Equal scores rank by insertion order,
	// earliest first. An empty index returns an empty result.
	Search(ctx context.Context, query string, k int) ([]domain.IndexHit, error)

	// Len returns the number of indexed chunks.
	Len() int

	// ChunkIDs returns all indexed chunk IDs in insertion order.
	ChunkIDs() []string

	// Close releases index memory.
	Close() error
}
