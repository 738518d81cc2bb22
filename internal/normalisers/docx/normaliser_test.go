package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(documentXML string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	// Add [Content_Types].xml (required for valid DOCX)
	contentTypes, _ := w.Create("[Content_Types].xml")
	contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))

	// Add word/document.xml
	if documentXML != "" {
		doc, _ := w.Create("word/document.xml")
		doc.Write([]byte(documentXML))
	}

	w.Close()
	return buf.Bytes()
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedMIMETypes(t *testing.T) {
	normaliser := New()
	mimeTypes := normaliser.SupportedMIMETypes()

	require.NotEmpty(t, mimeTypes)
	assert.Contains(t, mimeTypes, docxMIME)
	assert.Len(t, mimeTypes, 1)
}

func TestSupportedExtensions(t *testing.T) {
	normaliser := New()
	assert.Equal(t, []string{".docx"}, normaliser.SupportedExtensions())
}

func TestPriority(t *testing.T) {
	normaliser := New()
	assert.Equal(t, 50, normaliser.Priority())
}

func TestNormalise_Success(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello World</w:t></w:r></w:p>
</w:body>
</w:document>`

	raw := &domain.RawDocument{
		URI:      "/path/to/document.docx",
		Name:     "document.docx",
		MIMEType: docxMIME,
		Content:  createTestDOCX(docXML),
	}

	result, err := normaliser.Normalise(ctx, raw)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Documents, 1)

	doc := result.Documents[0]
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "document.docx", doc.Source)
	assert.Equal(t, 1, doc.Page)
	assert.Contains(t, doc.Content, "Hello World")
	assert.NotNil(t, doc.Metadata)
	assert.Equal(t, raw.MIMEType, doc.Metadata["mime_type"])
	assert.Equal(t, "docx", doc.Metadata["format"])
}

func TestNormalise_NilDocument(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	result, err := normaliser.Normalise(ctx, nil)
	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_InvalidZip(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	raw := &domain.RawDocument{
		URI:      "/path/to/invalid.docx",
		Name:     "invalid.docx",
		MIMEType: docxMIME,
		Content:  []byte("not a zip file"),
	}

	result, err := normaliser.Normalise(ctx, raw)
	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_FallsBackToURIName(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Content</w:t></w:r></w:p>
</w:body>
</w:document>`

	raw := &domain.RawDocument{
		URI:      "/path/to/my_document.docx",
		MIMEType: docxMIME,
		Content:  createTestDOCX(docXML),
	}

	result, err := normaliser.Normalise(ctx, raw)
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "my_document.docx", result.Documents[0].Source)
}

func TestNormalise_MultipleParagraphs(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Third paragraph</w:t></w:r></w:p>
</w:body>
</w:document>`

	raw := &domain.RawDocument{
		URI:      "/path/to/doc.docx",
		Name:     "doc.docx",
		MIMEType: docxMIME,
		Content:  createTestDOCX(docXML),
	}

	result, err := normaliser.Normalise(ctx, raw)
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)

	content := result.Documents[0].Content
	assert.Contains(t, content, "First paragraph")
	assert.Contains(t, content, "Second paragraph")
	assert.Contains(t, content, "Third paragraph")
	// Paragraphs should be separated by newlines
	assert.Contains(t, content, "\n")
}

func TestNormalise_MultipleRuns(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	// Multiple runs in a single paragraph (e.g., different formatting)
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p>
<w:r><w:t>Hello </w:t></w:r>
<w:r><w:t>World</w:t></w:r>
</w:p>
</w:body>
</w:document>`

	raw := &domain.RawDocument{
		URI:      "/path/to/doc.docx",
		Name:     "doc.docx",
		MIMEType: docxMIME,
		Content:  createTestDOCX(docXML),
	}

	result, err := normaliser.Normalise(ctx, raw)
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "Hello World", result.Documents[0].Content)
}

func TestNormalise_EmptyDocument(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
</w:body>
</w:document>`

	raw := &domain.RawDocument{
		URI:      "/path/to/empty.docx",
		Name:     "empty.docx",
		MIMEType: docxMIME,
		Content:  createTestDOCX(docXML),
	}

	result, err := normaliser.Normalise(ctx, raw)
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Empty(t, result.Documents[0].Content)
}

func TestNormalise_MetadataPreserved(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Test</w:t></w:r></w:p></w:body>
</w:document>`

	raw := &domain.RawDocument{
		URI:      "/path/to/doc.docx",
		Name:     "doc.docx",
		MIMEType: docxMIME,
		Content:  createTestDOCX(docXML),
		Metadata: map[string]any{
			"author": "test-author",
			"custom": "value",
		},
	}

	result, err := normaliser.Normalise(ctx, raw)
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)

	doc := result.Documents[0]
	assert.Equal(t, "test-author", doc.Metadata["author"])
	assert.Equal(t, "value", doc.Metadata["custom"])
	assert.Equal(t, "docx", doc.Metadata["format"])

	// The upload's own metadata map must not be mutated.
	_, polluted := raw.Metadata["format"]
	assert.False(t, polluted)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func BenchmarkNormalise(b *testing.B) {
	normaliser := New()
	ctx := context.Background()

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello World</w:t></w:r></w:p>
</w:body>
</w:document>`

	raw := &domain.RawDocument{
		URI:      "/test/document.docx",
		Name:     "document.docx",
		MIMEType: docxMIME,
		Content:  createTestDOCX(docXML),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = normaliser.Normalise(ctx, raw)
	}
}
