// Package memory provides in-memory storage backing a single session.
// Everything here lives and dies with the session that owns it.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

// CorpusStore is an in-memory implementation of driven.CorpusStore.
// Documents and chunks are kept in insertion order so listings are
// deterministic across calls.
type CorpusStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	docOrder  []string
	chunks    map[string]domain.Chunk
}

// NewCorpusStore creates an empty in-memory corpus.
func NewCorpusStore() *CorpusStore {
	return &CorpusStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string]domain.Chunk),
	}
}

// SaveDocument stores a page-level document.
func (s *CorpusStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; !exists {
		s.docOrder = append(s.docOrder, doc.ID)
	}
	s.documents[doc.ID] = *doc
	return nil
}

// SaveChunks stores chunks, appending to the session's population.
func (s *CorpusStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		if chunk.ID == "" {
			return domain.ErrInvalidInput
		}
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// DeleteChunk removes a chunk. Deleting an absent chunk is a no-op so
// rollback can retry safely.
func (s *CorpusStore) DeleteChunk(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, id)
	return nil
}

// GetDocument retrieves a document by ID.
func (s *CorpusStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *CorpusStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// ListDocuments returns all documents in insertion order.
func (s *CorpusStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.docOrder))
	for _, id := range s.docOrder {
		result = append(result, s.documents[id])
	}
	return result, nil
}

// CountDocuments returns the number of stored documents.
func (s *CorpusStore) CountDocuments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// CountChunks returns the number of stored chunks.
func (s *CorpusStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Close releases the corpus memory.
func (s *CorpusStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[string]domain.Document)
	s.docOrder = nil
	s.chunks = make(map[string]domain.Chunk)
	return nil
}
