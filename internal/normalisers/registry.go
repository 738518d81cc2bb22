package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches uploads to the best matching normaliser.
// Matching tries the MIME type first and falls back to the file extension;
// within each, the highest-priority normaliser wins.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty normaliser registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a normaliser, keeping the list ordered by priority.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, normaliser)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Normalise transforms an upload using the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	normaliser := r.match(canonicalMIME(raw.MIMEType), extension(raw))
	if normaliser == nil {
		return nil, fmt.Errorf("%q (%s): %w", displayName(raw), raw.MIMEType, domain.ErrUnsupportedType)
	}

	return normaliser.Normalise(ctx, raw)
}

// SupportedMIMETypes returns all MIME types that can be normalised.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var types []string
	for _, n := range r.normalisers {
		for _, mt := range n.SupportedMIMETypes() {
			if _, ok := seen[mt]; ok {
				continue
			}
			seen[mt] = struct{}{}
			types = append(types, mt)
		}
	}
	sort.Strings(types)
	return types
}

// SupportedExtensions returns all file extensions that can be normalised.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var exts []string
	for _, n := range r.normalisers {
		for _, ext := range n.SupportedExtensions() {
			if _, ok := seen[ext]; ok {
				continue
			}
			seen[ext] = struct{}{}
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// match finds the highest-priority normaliser for the MIME type, falling
// back to the extension. The list is already priority-ordered.
func (r *Registry) match(mimeType, ext string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mimeType != "" {
		for _, n := range r.normalisers {
			for _, mt := range n.SupportedMIMETypes() {
				if mt == mimeType {
					return n
				}
			}
		}
	}

	if ext != "" {
		for _, n := range r.normalisers {
			for _, e := range n.SupportedExtensions() {
				if e == ext {
					return n
				}
			}
		}
	}

	return nil
}

// canonicalMIME strips parameters like "; charset=utf-8" and lowercases.
func canonicalMIME(mimeType string) string {
	base, _, found := strings.Cut(mimeType, ";")
	if !found {
		base = mimeType
	}
	return strings.ToLower(strings.TrimSpace(base))
}

// extension returns the lowercase extension of the upload's name or URI.
func extension(raw *domain.RawDocument) string {
	name := raw.Name
	if name == "" {
		name = raw.URI
	}
	return strings.ToLower(filepath.Ext(name))
}

// displayName returns something recognisable for error messages.
func displayName(raw *domain.RawDocument) string {
	if raw.Name != "" {
		return raw.Name
	}
	return filepath.Base(raw.URI)
}
