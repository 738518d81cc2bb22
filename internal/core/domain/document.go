package domain

import (
	"fmt"
	"time"
)

// Document represents one page of ingested text with its provenance.
// Ingestion produces one Document per source page; documents are
// immutable once created and owned by the chunker during splitting.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Source is the display name of the originating file (e.g. "report.pdf").
	Source string

	// Page is the 1-based page number within the source file.
	Page int

	// Content is the page text after normalisation.
	Content string

	// Metadata contains arbitrary key-value pairs from the normaliser.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Validate reports whether the document is acceptable for indexing.
// Empty content, a missing source and a non-positive page number are
// all rejected; rejection never mutates session state.
func (d Document) Validate() error {
	if d.Content == "" {
		return fmt.Errorf("document %q page %d has empty content: %w", d.Source, d.Page, ErrInvalidDocument)
	}
	if d.Source == "" {
		return fmt.Errorf("document has no source name: %w", ErrInvalidDocument)
	}
	if d.Page < 1 {
		return fmt.Errorf("document %q has page %d, want >= 1: %w", d.Source, d.Page, ErrInvalidDocument)
	}
	return nil
}

// Chunk represents a semantically coherent span of one document.
// Chunks are the unit of retrieval: every chunk traces back to exactly one
// document, and chunk boundaries never cross two source documents.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the Document this chunk derives from.
	DocumentID string

	// Source is inherited from the originating document.
	Source string

	// Page is the page of the chunk's first sentence. A chunk whose
	// sentences span pages keeps the first sentence's page.
	Page int

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation, attached at index-build
	// time and never mutated afterwards.
	Embedding []float32
}
