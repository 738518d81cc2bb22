package driven

import (
	"context"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

// Normaliser transforms uploaded bytes into page-level documents.
// Each normaliser handles specific MIME types (e.g., PDF, plain text).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// SupportedExtensions returns lowercase file extensions (with dot)
	// used when the upload carries no MIME type.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise transforms an upload into one document per page.
	// Page numbers are 1-based and every document carries the upload's
	// display name as its source.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Normalisation only produces page documents with content and provenance;
// chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Documents holds one entry per non-blank page, in page order.
	Documents []domain.Document
}
