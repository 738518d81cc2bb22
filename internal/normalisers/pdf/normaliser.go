// Package pdf extracts text from PDF uploads by shelling out to pdftotext
// (poppler). Each PDF page becomes one Document; page boundaries come from
// the form feed characters pdftotext emits between pages.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// pdftotextBin is the external tool used for extraction.
const pdftotextBin = "pdftotext"

// ErrPDFToolNotFound indicates the pdftotext binary is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// ErrNoTextContent indicates the PDF produced no extractable text,
// typically a scanned document without an OCR layer.
var ErrNoTextContent = errors.New("pdf contains no extractable text")

// CommandRunner executes an external command and returns its stdout.
// Abstracted for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Normaliser handles PDF documents via pdftotext.
type Normaliser struct {
	runner CommandRunner
}

// New creates a new PDF normaliser using the system pdftotext binary.
func New() *Normaliser {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{runner: runner}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Format-specific normaliser
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(pdftotextBin); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns a human-readable hint for installing pdftotext.
func InstallInstructions() string {
	return `pdftotext is required for PDF ingestion.

Install it with your package manager:
  macOS:         brew install poppler
  Debian/Ubuntu: sudo apt install poppler-utils
  Fedora:        sudo dnf install poppler-utils`
}

// Normalise extracts the PDF's text and returns one document per non-blank
// page. Page numbers are 1-based and count blank pages, so citations match
// the reader's view of the file.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := CheckAvailable(); err != nil {
		return nil, err
	}

	// pdftotext needs a seekable file: the xref table sits at the end.
	tmp, err := os.CreateTemp("", "paperchat-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	// "-" sends the text to stdout; stderr warnings stay out of the content.
	output, err := n.runner.Run(ctx, pdftotextBin, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	source := sourceName(raw)
	now := time.Now()

	var documents []domain.Document
	for i, pageText := range strings.Split(string(output), "\f") {
		content := strings.TrimSpace(pageText)
		if content == "" {
			continue // Blank page, or the trailing form feed
		}

		metadata := copyMetadata(raw.Metadata)
		if metadata == nil {
			metadata = make(map[string]any)
		}
		metadata["mime_type"] = "application/pdf"
		metadata["format"] = "pdf"

		documents = append(documents, domain.Document{
			ID:        uuid.New().String(),
			Source:    source,
			Page:      i + 1,
			Content:   content,
			Metadata:  metadata,
			CreatedAt: now,
		})
	}

	if len(documents) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrNoTextContent)
	}

	return &driven.NormaliseResult{Documents: documents}, nil
}

// sourceName returns the upload's display name.
func sourceName(raw *domain.RawDocument) string {
	if raw.Name != "" {
		return raw.Name
	}
	return filepath.Base(raw.URI)
}

// copyMetadata creates a shallow copy of metadata.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
