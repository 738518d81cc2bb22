// Package dense provides an in-memory vector index with exact cosine search.
//
// The index is session-scoped and append-only: it holds every chunk added
// during one conversation and searches by brute force. Corpora here are a
// handful of uploaded PDFs, so exact scan beats an ANN structure on both
// simplicity and recall.
package dense

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.DenseIndex = (*Index)(nil)

// Index is an in-memory implementation of driven.DenseIndex.
// The zero dimension adopts the dimension of the first added embedding.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry
	positions map[string]int // chunk ID → index into entries
}

type entry struct {
	chunkID string
	vector  []float32
}

// New creates an empty dense index. dimension fixes the expected embedding
// size; pass 0 to adopt the dimension of the first added chunk.
func New(dimension int) *Index {
	return &Index{
		dimension: dimension,
		positions: make(map[string]int),
	}
}

// Add appends embedded chunks to the index. Chunks must carry an embedding
// of the index's dimension and an ID not yet present.
func (idx *Index) Add(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, chunk := range chunks {
		if chunk.ID == "" {
			return fmt.Errorf("chunk without ID: %w", domain.ErrInvalidInput)
		}
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding: %w", chunk.ID, domain.ErrInvalidInput)
		}
		if idx.dimension == 0 {
			idx.dimension = len(chunk.Embedding)
		}
		if len(chunk.Embedding) != idx.dimension {
			return fmt.Errorf("chunk %s has dimension %d, index has %d: %w",
				chunk.ID, len(chunk.Embedding), idx.dimension, domain.ErrDimensionMismatch)
		}
		if _, exists := idx.positions[chunk.ID]; exists {
			return fmt.Errorf("chunk %s already indexed: %w", chunk.ID, domain.ErrInvalidInput)
		}

		idx.positions[chunk.ID] = len(idx.entries)
		idx.entries = append(idx.entries, entry{chunkID: chunk.ID, vector: chunk.Embedding})
	}

	return nil
}

// Delete removes a chunk by ID. Missing IDs are a no-op so a rollback can
// be retried safely.
func (idx *Index) Delete(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	pos, ok := idx.positions[chunkID]
	if !ok {
		return nil
	}

	idx.entries = append(idx.entries[:pos], idx.entries[pos+1:]...)
	delete(idx.positions, chunkID)
	for i := pos; i < len(idx.entries); i++ {
		idx.positions[idx.entries[i].chunkID] = i
	}

	return nil
}

// Search returns the k most similar chunks to the query embedding by
// cosine similarity, highest first. Equal scores keep insertion order.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]domain.IndexHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 || len(idx.entries) == 0 {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("query has dimension %d, index has %d: %w",
			len(query), idx.dimension, domain.ErrDimensionMismatch)
	}

	type scored struct {
		chunkID  string
		score    float64
		position int
	}

	scores := make([]scored, len(idx.entries))
	for i, e := range idx.entries {
		scores[i] = scored{
			chunkID:  e.chunkID,
			score:    cosineSimilarity(query, e.vector),
			position: i,
		}
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].position < scores[j].position
	})

	if k > len(scores) {
		k = len(scores)
	}
	hits := make([]domain.IndexHit, k)
	for i := 0; i < k; i++ {
		hits[i] = domain.IndexHit{ChunkID: scores[i].chunkID, Score: scores[i].score}
	}

	return hits, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// ChunkIDs returns all indexed chunk IDs in insertion order.
func (idx *Index) ChunkIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]string, len(idx.entries))
	for i, e := range idx.entries {
		ids[i] = e.chunkID
	}
	return ids
}

// Close releases the index memory.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = nil
	idx.positions = make(map[string]int)
	return nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
