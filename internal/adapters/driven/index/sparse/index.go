// Package sparse provides an in-memory lexical index scored with BM25.
//
// The index is session-scoped and append-only, the lexical counterpart to
// the dense vector index: it recovers exact keyword and proper-noun matches
// that embeddings under-weight.
package sparse

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
)

// BM25 parameters. k1 saturates term frequency, b scales length
// normalisation.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Ensure Index implements the interface.
var _ driven.SparseIndex = (*Index)(nil)

// Index is an in-memory implementation of driven.SparseIndex.
type Index struct {
	mu          sync.RWMutex
	k1          float64
	b           float64
	postings    map[string]map[string]int // term → chunk ID → term frequency
	docs        map[string]docInfo        // chunk ID → token stats
	order       []string                  // chunk IDs in insertion order
	totalTokens int
}

type docInfo struct {
	length int
	terms  map[string]int
}

// Option configures the sparse index.
type Option func(*Index)

// WithK1 sets the BM25 term-frequency saturation parameter.
func WithK1(k1 float64) Option {
	return func(idx *Index) {
		if k1 > 0 {
			idx.k1 = k1
		}
	}
}

// WithB sets the BM25 length normalisation parameter [0, 1].
func WithB(b float64) Option {
	return func(idx *Index) {
		if b >= 0 && b <= 1 {
			idx.b = b
		}
	}
}

// New creates an empty sparse index.
func New(opts ...Option) *Index {
	idx := &Index{
		k1:       DefaultK1,
		b:        DefaultB,
		postings: make(map[string]map[string]int),
		docs:     make(map[string]docInfo),
	}

	for _, opt := range opts {
		opt(idx)
	}

	return idx
}

// Add appends chunks to the index, tokenising their content.
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
		if _, exists := idx.docs[chunk.ID]; exists {
			return fmt.Errorf("chunk %s already indexed: %w", chunk.ID, domain.ErrInvalidInput)
		}

		tokens := tokenize(chunk.Content)
		terms := make(map[string]int, len(tokens))
		for _, token := range tokens {
			terms[token]++
		}

		for term, tf := range terms {
			if idx.postings[term] == nil {
				idx.postings[term] = make(map[string]int)
			}
			idx.postings[term][chunk.ID] = tf
		}

		idx.docs[chunk.ID] = docInfo{length: len(tokens), terms: terms}
		idx.order = append(idx.order, chunk.ID)
		idx.totalTokens += len(tokens)
	}

	return nil
}

// Delete removes a chunk by ID. Missing IDs are a no-op so a rollback can
// be retried safely.
func (idx *Index) Delete(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	info, ok := idx.docs[chunkID]
	if !ok {
		return nil
	}

	for term := range info.terms {
		delete(idx.postings[term], chunkID)
		if len(idx.postings[term]) == 0 {
			delete(idx.postings, term)
		}
	}

	delete(idx.docs, chunkID)
	idx.totalTokens -= info.length
	for i, id := range idx.order {
		if id == chunkID {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			break
		}
	}

	return nil
}

// Search returns the k best BM25 matches for the query text, highest score
// first. Equal scores keep insertion order. Queries whose terms all score
// zero match nothing.
func (idx *Index) Search(_ context.Context, query string, k int) ([]domain.IndexHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 || len(idx.order) == 0 {
		return nil, nil
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	bigN := float64(len(idx.order))
	avgDl := float64(idx.totalTokens) / bigN

	scores := make(map[string]float64)
	for _, term := range queryTokens {
		postings, ok := idx.postings[term]
		if !ok {
			continue
		}

		n := float64(len(postings))
		idf := math.Log((bigN-n+0.5)/(n+0.5) + 1)

		for chunkID, tf := range postings {
			dl := float64(idx.docs[chunkID].length)
			tfF := float64(tf)
			scores[chunkID] += idf * (tfF * (idx.k1 + 1)) / (tfF + idx.k1*(1-idx.b+idx.b*dl/avgDl))
		}
	}

	if len(scores) == 0 {
		return nil, nil
	}

	// Build hits in insertion order so the stable sort keeps ties
	// deterministic, earliest insertion first.
	hits := make([]domain.IndexHit, 0, len(scores))
	for _, chunkID := range idx.order {
		if score, ok := scores[chunkID]; ok {
			hits = append(hits, domain.IndexHit{ChunkID: chunkID, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.order)
}

// ChunkIDs returns all indexed chunk IDs in insertion order.
func (idx *Index) ChunkIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]string, len(idx.order))
	copy(ids, idx.order)
	return ids
}

// Close releases the index memory.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.postings = make(map[string]map[string]int)
	idx.docs = make(map[string]docInfo)
	idx.order = nil
	idx.totalTokens = 0
	return nil
}
