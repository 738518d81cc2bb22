package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr error
	}{
		{
			name: "valid document passes",
			doc:  Document{Source: "report.pdf", Page: 1, Content: "Intro text."},
		},
		{
			name:    "empty content rejected",
			doc:     Document{Source: "report.pdf", Page: 2, Content: ""},
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "missing source rejected",
			doc:     Document{Source: "", Page: 1, Content: "text"},
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "zero page rejected",
			doc:     Document{Source: "report.pdf", Page: 0, Content: "text"},
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "negative page rejected",
			doc:     Document{Source: "report.pdf", Page: -3, Content: "text"},
			wantErr: ErrInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}
}

func TestDocument_ValidateErrorNamesDocument(t *testing.T) {
	doc := Document{Source: "budget.pdf", Page: 4, Content: ""}

	err := doc.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "budget.pdf")
	assert.Contains(t, err.Error(), "4")
}

func TestChunk_TracksProvenance(t *testing.T) {
	chunk := Chunk{
		ID:         "chunk-1",
		DocumentID: "doc-1",
		Source:     "report.pdf",
		Page:       2,
		Content:    "Technical detail A.",
		Position:   0,
		Embedding:  []float32{0.1, 0.2, 0.3},
	}

	assert.Equal(t, "doc-1", chunk.DocumentID)
	assert.Equal(t, "report.pdf", chunk.Source)
	assert.Equal(t, 2, chunk.Page)
	assert.Len(t, chunk.Embedding, 3)
}
