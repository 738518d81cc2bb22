package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidDocument", ErrInvalidDocument},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrFileTooLarge", ErrFileTooLarge},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrIndexDesync", ErrIndexDesync},
		{"ErrSessionNotFound", ErrSessionNotFound},
		{"ErrSessionClosed", ErrSessionClosed},
		{"ErrTimeout", ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_AreDistinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrInvalidInput, ErrInvalidDocument, ErrUnsupportedType,
		ErrFileTooLarge, ErrLLMUnavailable, ErrEmbeddingUnavailable,
		ErrDimensionMismatch, ErrIndexDesync, ErrSessionNotFound,
		ErrSessionClosed, ErrTimeout,
	}

	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

func TestErrors_WrapAndUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("adding chunks to sparse index: %w", ErrIndexDesync)

	assert.True(t, errors.Is(wrapped, ErrIndexDesync))
	assert.False(t, errors.Is(wrapped, ErrSessionClosed))
}
