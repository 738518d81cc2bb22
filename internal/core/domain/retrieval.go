package domain

// IndexHit is a single result from one index: a chunk identifier with the
// index's own relevance score. Scores from different indices are not
// comparable with each other.
type IndexHit struct {
	// ChunkID identifies the matched chunk.
	ChunkID string

	// Score is the index-specific relevance score (cosine similarity for
	// the dense index, BM25 for the sparse index). Higher is better.
	Score float64
}

// RetrievalOrigin records which index surfaced a fused result.
type RetrievalOrigin string

// Retrieval origins.
const (
	// OriginSparse means only the lexical index returned the chunk.
	OriginSparse RetrievalOrigin = "sparse"

	// OriginDense means only the vector index returned the chunk.
	OriginDense RetrievalOrigin = "dense"

	// OriginBoth means both indices returned the chunk.
	OriginBoth RetrievalOrigin = "both"
)

// ScoredChunk is a fused retrieval result handed to the generation step.
type ScoredChunk struct {
	// Chunk is the retrieved passage.
	Chunk Chunk

	// Score is the fused relevance score. Within one result list higher
	// is better; absolute values depend on the fusion method.
	Score float64

	// Origin records which index (or both) surfaced the chunk.
	Origin RetrievalOrigin
}

// FusionMethod selects how the dense and sparse result lists are merged.
type FusionMethod string

// Available fusion methods.
const (
	// FusionInterleave alternates between the sparse and dense lists by
	// rank position, sparse first, deduplicating on chunk content; a
	// chunk surfaced by both keeps its better position.
	FusionInterleave FusionMethod = "interleave"

	// FusionRRF merges by reciprocal rank: score += 1/(k + rank + 1)
	// summed over both lists, then sorts by fused score.
	FusionRRF FusionMethod = "rrf"
)

// IsValid returns true if the fusion method is recognised.
func (m FusionMethod) IsValid() bool {
	switch m {
	case FusionInterleave, FusionRRF:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m FusionMethod) String() string {
	return string(m)
}

// RetrievalOptions bounds one hybrid retrieval call.
type RetrievalOptions struct {
	// KPerIndex is how many results to request from each index.
	KPerIndex int

	// KCombined caps the fused result list after deduplication.
	KCombined int

	// Fusion is the merge strategy for the two ranked lists.
	Fusion FusionMethod
}

// ChatTurn is one completed (question, answer) exchange.
// The refiner consumes turns read-only.
type ChatTurn struct {
	// Question is the user's message as typed.
	Question string

	// Answer is the generated answer text.
	Answer string
}

// SourceRef names one cited location: a source file and page.
type SourceRef struct {
	// Source is the display name of the file.
	Source string

	// Page is the 1-based page number.
	Page int
}

// Answer is the result of one question against a session.
type Answer struct {
	// Text is the generated answer.
	Text string

	// RefinedQuery is the standalone query used for retrieval. Equal to
	// the raw question on the first turn or when refinement degraded.
	RefinedQuery string

	// Sources lists the cited locations, deduplicated on (source, page)
	// in retrieval order.
	Sources []SourceRef

	// Passages are the retrieved chunks the answer was grounded on.
	Passages []ScoredChunk
}

// SourceRefs extracts the (source, page) references of a result list,
// deduplicated in first-occurrence order.
func SourceRefs(passages []ScoredChunk) []SourceRef {
	seen := make(map[SourceRef]struct{}, len(passages))
	refs := make([]SourceRef, 0, len(passages))
	for _, p := range passages {
		ref := SourceRef{Source: p.Chunk.Source, Page: p.Chunk.Page}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

// SkippedDocument reports one document that could not be indexed, with
// enough context for the caller to decide whether to continue.
type SkippedDocument struct {
	// Source is the document's source name ("" when unknown).
	Source string

	// Page is the document's page number (0 when unknown).
	Page int

	// Stage names the pipeline stage that failed
	// (read, normalise, validate, chunk, embed, index).
	Stage string

	// Reason is the human-readable failure description.
	Reason string
}

// IngestReport summarises one add-documents call. Per-document failures
// are isolated: a batch succeeds partially rather than failing whole.
type IngestReport struct {
	// DocumentsAdded counts documents whose chunks were indexed.
	DocumentsAdded int

	// ChunksAdded counts chunks appended to both indices.
	ChunksAdded int

	// Skipped lists documents that were rejected or failed, in input order.
	Skipped []SkippedDocument
}
