package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperchat-cli/internal/logger"
)

// RetrievalService performs hybrid retrieval over one session's indices:
// it queries the sparse and dense indices in parallel, hydrates the hits
// into full chunks and fuses the two ranked lists into one.
type RetrievalService struct {
	corpus   driven.CorpusStore
	dense    driven.DenseIndex
	sparse   driven.SparseIndex
	embedder driven.EmbeddingService
}

// NewRetrievalService creates a retrieval service over one session's
// structures. The embedder is optional: when nil, retrieval degrades to
// lexical results only.
func NewRetrievalService(
	corpus driven.CorpusStore,
	dense driven.DenseIndex,
	sparse driven.SparseIndex,
	embedder driven.EmbeddingService,
) *RetrievalService {
	return &RetrievalService{
		corpus:   corpus,
		dense:    dense,
		sparse:   sparse,
		embedder: embedder,
	}
}

// Retrieve returns the fused top passages for the query.
// An empty index population or an empty query yields an empty result, not
// an error. If one index fails the other's results are used alone; only
// both failing fails the call.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) ([]domain.ScoredChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.ScoredChunk{}, nil
	}

	kPerIndex := opts.KPerIndex
	if kPerIndex <= 0 {
		kPerIndex = domain.DefaultKPerIndex
	}
	kCombined := opts.KCombined
	if kCombined <= 0 {
		kCombined = domain.DefaultKCombined
	}
	fusion := opts.Fusion
	if !fusion.IsValid() {
		fusion = domain.FusionInterleave
	}

	logger.Debug("Retrieve: query=%q, k_per_index=%d, k_combined=%d, fusion=%s",
		query, kPerIndex, kCombined, fusion)

	var sparseResults, denseResults []domain.ScoredChunk
	var sparseErr, denseErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		sparseResults, sparseErr = s.sparseSearch(ctx, query, kPerIndex)
	}()

	go func() {
		defer wg.Done()
		denseResults, denseErr = s.denseSearch(ctx, query, kPerIndex)
	}()

	wg.Wait()

	// Degrade to single-signal retrieval when one side fails.
	if sparseErr != nil && denseErr != nil {
		return nil, fmt.Errorf("retrieve: sparse=%w, dense=%w", sparseErr, denseErr)
	}
	if sparseErr != nil {
		logger.Warn("Sparse search failed, using dense results only: %v", sparseErr)
		sparseResults = nil
	}
	if denseErr != nil {
		logger.Warn("Dense search failed, using sparse results only: %v", denseErr)
		denseResults = nil
	}

	var fused []domain.ScoredChunk
	switch fusion {
	case domain.FusionRRF:
		fused = reciprocalRankFusion(sparseResults, denseResults, 60)
	default:
		fused = interleave(sparseResults, denseResults)
	}

	if len(fused) > kCombined {
		fused = fused[:kCombined]
	}

	logger.Debug("Retrieve: %d sparse + %d dense fused to %d",
		len(sparseResults), len(denseResults), len(fused))

	return fused, nil
}

// sparseSearch queries the lexical index and hydrates the hits.
func (s *RetrievalService) sparseSearch(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if s.sparse == nil {
		return nil, errors.New("sparse index unavailable")
	}

	hits, err := s.sparse.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("sparse search: %w", err)
	}

	return s.hydrate(ctx, hits, domain.OriginSparse)
}

// denseSearch embeds the query and searches the vector index.
func (s *RetrievalService) denseSearch(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if s.dense == nil {
		return nil, errors.New("dense index unavailable")
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("dense search: %w", domain.ErrEmbeddingUnavailable)
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.dense.Search(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}

	return s.hydrate(ctx, hits, domain.OriginDense)
}

// hydrate converts index hits into full chunks via the corpus store.
// Hits whose chunk is gone are skipped rather than failing the search.
func (s *RetrievalService) hydrate(ctx context.Context, hits []domain.IndexHit, origin domain.RetrievalOrigin) ([]domain.ScoredChunk, error) {
	results := make([]domain.ScoredChunk, 0, len(hits))

	for _, hit := range hits {
		chunk, err := s.corpus.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("Chunk %s not in corpus, skipping", hit.ChunkID)
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}

		results = append(results, domain.ScoredChunk{
			Chunk:  *chunk,
			Score:  hit.Score,
			Origin: origin,
		})
	}

	return results, nil
}

// interleave merges the two ranked lists round-robin by rank position,
// consulting the sparse list first at each rank. Duplicates (same chunk ID
// or identical content) are kept once at their first (better) position,
// marked as surfaced by both indices.
func interleave(sparseResults, denseResults []domain.ScoredChunk) []domain.ScoredChunk {
	maxLen := len(sparseResults)
	if len(denseResults) > maxLen {
		maxLen = len(denseResults)
	}

	fused := make([]domain.ScoredChunk, 0, len(sparseResults)+len(denseResults))
	position := make(map[string]int) // dedup key → index into fused

	take := func(result domain.ScoredChunk) {
		key := dedupKey(result.Chunk)
		if at, seen := position[key]; seen {
			if fused[at].Origin != result.Origin {
				fused[at].Origin = domain.OriginBoth
			}
			return
		}
		position[key] = len(fused)
		fused = append(fused, result)
	}

	for rank := 0; rank < maxLen; rank++ {
		if rank < len(sparseResults) {
			take(sparseResults[rank])
		}
		if rank < len(denseResults) {
			take(denseResults[rank])
		}
	}

	return fused
}

// reciprocalRankFusion merges the two ranked lists by summed reciprocal
// rank, score += 1/(k + rank + 1) over both lists. k dampens the dominance
// of top ranks; 60 is the conventional value. Ties keep first-appearance
// order (sparse list first), which keeps the output deterministic.
func reciprocalRankFusion(sparseResults, denseResults []domain.ScoredChunk, k int) []domain.ScoredChunk {
	fused := make([]domain.ScoredChunk, 0, len(sparseResults)+len(denseResults))
	position := make(map[string]int)

	accumulate := func(results []domain.ScoredChunk) {
		for rank, result := range results {
			rrf := 1.0 / float64(k+rank+1)
			key := dedupKey(result.Chunk)
			if at, seen := position[key]; seen {
				fused[at].Score += rrf
				if fused[at].Origin != result.Origin {
					fused[at].Origin = domain.OriginBoth
				}
				continue
			}
			position[key] = len(fused)
			result.Score = rrf
			fused = append(fused, result)
		}
	}

	accumulate(sparseResults)
	accumulate(denseResults)

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	return fused
}

// dedupKey identifies a chunk for fusion deduplication. Chunk IDs are
// unique per chunk, but distinct chunks can carry identical text (repeated
// headers across pages); those count as duplicates too.
func dedupKey(chunk domain.Chunk) string {
	return chunk.Content
}
