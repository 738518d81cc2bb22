// Package semantic provides an embedding-based semantic chunking processor.
//
// Instead of cutting at fixed character counts, the processor embeds each
// sentence, measures the semantic distance between adjacent sentences, and
// declares a chunk boundary wherever the distance exceeds a percentile of
// the current document's own distance distribution. The threshold adapts
// per document rather than using a fixed absolute cutoff.
package semantic

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
)

// DefaultBreakpointPercentile is the distance percentile above which a
// chunk boundary is declared.
const DefaultBreakpointPercentile = 95.0

// DefaultBufferSize is how many neighbouring sentences are joined to each
// side of a sentence before embedding it. Buffering smooths out noise in
// very short sentences.
const DefaultBufferSize = 1

// Processor splits document content into semantically coherent chunks.
// It implements the PostProcessor interface and creates chunks; it must be
// the first processor in a pipeline.
type Processor struct {
	embedder   driven.EmbeddingService
	percentile float64
	bufferSize int
}

// Option configures the semantic processor.
type Option func(*Processor)

// WithPercentile sets the breakpoint threshold percentile (0, 100].
func WithPercentile(p float64) Option {
	return func(proc *Processor) {
		if p > 0 && p <= 100 {
			proc.percentile = p
		}
	}
}

// WithBufferSize sets how many neighbour sentences are joined to each side
// of a sentence when embedding it. Zero embeds each sentence alone.
func WithBufferSize(n int) Option {
	return func(proc *Processor) {
		if n >= 0 {
			proc.bufferSize = n
		}
	}
}

// New creates a semantic chunking processor backed by the given embedder.
func New(embedder driven.EmbeddingService, opts ...Option) *Processor {
	p := &Processor{
		embedder:   embedder,
		percentile: DefaultBreakpointPercentile,
		bufferSize: DefaultBufferSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "semantic"
}

// Process splits the document content into chunks at semantic breakpoints.
// Input chunks are ignored; this processor creates new chunks.
//
// Every chunk's content is an exact substring of the document, and the
// chunks concatenate back to the full document content. A document with a
// single sentence, or whose adjacent distances all sit below the
// threshold, yields one chunk. An embedding failure is returned to the
// caller, which treats it as a per-document skip, not a batch failure.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document: %w", domain.ErrInvalidInput)
	}
	if doc.Content == "" {
		return nil, nil
	}
	if p.embedder == nil {
		return nil, fmt.Errorf("semantic chunking needs an embedder: %w", domain.ErrEmbeddingUnavailable)
	}

	spans := splitSpans(doc.Content)
	if len(spans) == 0 || (len(spans) == 1 && spans[0].text == "") {
		return nil, nil
	}
	if len(spans) == 1 {
		return p.buildChunks(doc, spans, nil), nil
	}

	embeddings, err := p.embedder.EmbedBatch(ctx, p.embeddingTexts(spans))
	if err != nil {
		return nil, fmt.Errorf("embedding %d sentences of %q page %d: %w", len(spans), doc.Source, doc.Page, err)
	}
	if len(embeddings) != len(spans) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d sentences: %w",
			len(embeddings), len(spans), domain.ErrEmbeddingUnavailable)
	}

	distances := make([]float64, len(spans)-1)
	for i := 0; i < len(spans)-1; i++ {
		distances[i] = cosineDistance(embeddings[i], embeddings[i+1])
	}
	threshold := percentile(distances, p.percentile)

	// A breakpoint after sentence i splits the document between spans
	// i and i+1. Strictly-greater keeps single-chunk documents when all
	// distances tie at the threshold.
	var breakpoints []int
	for i, d := range distances {
		if d > threshold {
			breakpoints = append(breakpoints, i)
		}
	}

	return p.buildChunks(doc, spans, breakpoints), nil
}

// embeddingTexts returns the text embedded for each sentence: the sentence
// joined with up to bufferSize trimmed neighbours on each side.
func (p *Processor) embeddingTexts(spans []sentenceSpan) []string {
	texts := make([]string, len(spans))
	for i := range spans {
		if p.bufferSize == 0 {
			texts[i] = spans[i].text
			continue
		}
		lo := i - p.bufferSize
		if lo < 0 {
			lo = 0
		}
		hi := i + p.bufferSize
		if hi > len(spans)-1 {
			hi = len(spans) - 1
		}
		parts := make([]string, 0, hi-lo+1)
		for j := lo; j <= hi; j++ {
			parts = append(parts, spans[j].text)
		}
		texts[i] = strings.Join(parts, " ")
	}
	return texts
}

// buildChunks merges consecutive spans between breakpoints into chunks.
// Chunk content is the exact substring from the first span's start to the
// last span's end, so provenance and coverage are preserved.
func (p *Processor) buildChunks(doc *domain.Document, spans []sentenceSpan, breakpoints []int) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(breakpoints)+1)
	position := 0
	first := 0

	cut := func(last int) {
		content := doc.Content[spans[first].start:spans[last].end]
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Source:     doc.Source,
			Page:       doc.Page,
			Content:    content,
			Position:   position,
		})
		position++
		first = last + 1
	}

	for _, bp := range breakpoints {
		cut(bp)
	}
	cut(len(spans) - 1)

	return chunks
}
