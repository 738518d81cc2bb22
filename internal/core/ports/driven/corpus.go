package driven

import (
	"context"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

// CorpusStore holds one session's documents and chunks in memory.
// Retrieval hydrates index hits back into full chunks through it.
// It is destroyed with the session; nothing is persisted.
type CorpusStore interface {
	// SaveDocument stores a page-level document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks. Chunk order across calls is the session's
	// insertion order.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// DeleteChunk removes a chunk. Used only for rollback of a
	// partially-applied append.
	DeleteChunk(ctx context.Context, id string) error

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunk retrieves a chunk by ID.
	// Returns ErrNotFound if absent.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// ListDocuments returns all documents in insertion order.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// Close releases the corpus memory.
	Close() error
}
