package domain

// RawDocument represents opaque uploaded bytes before normalisation.
// Normalisers turn one RawDocument into page-level Documents.
type RawDocument struct {
	// URI is the original location (file path).
	URI string

	// Name is the display name of the upload (file base name).
	Name string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains upload-specific key-value pairs.
	Metadata map[string]any
}
