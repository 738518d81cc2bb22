package driven

import (
	"context"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for an upload.
// It maintains a priority-ordered list of normalisers and dispatches on
// MIME type, falling back to the file extension.
type NormaliserRegistry interface {
	// Normalise transforms an upload using the best matching normaliser.
	// Returns ErrUnsupportedType when no normaliser matches.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string

	// SupportedExtensions returns all file extensions that can be normalised.
	SupportedExtensions() []string
}
