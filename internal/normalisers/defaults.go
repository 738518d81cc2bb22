package normalisers

import (
	"github.com/custodia-labs/paperchat-cli/internal/normalisers/docx"
	"github.com/custodia-labs/paperchat-cli/internal/normalisers/html"
	"github.com/custodia-labs/paperchat-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/paperchat-cli/internal/normalisers/pdf"
	"github.com/custodia-labs/paperchat-cli/internal/normalisers/plaintext"
)

// RegisterDefaults registers all built-in normalisers with the registry.
// Call this at startup to make the standard formats available.
func RegisterDefaults(r *Registry) {
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(html.New())
	r.Register(markdown.New())
	r.Register(plaintext.New())
}
