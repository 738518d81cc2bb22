package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

func TestServer_handleSessionResource(t *testing.T) {
	ctx := context.Background()

	session := &mockSessionService{
		info: &domain.SessionInfo{
			ID:            "session-1",
			DocumentCount: 3,
			ChunkCount:    9,
			TurnCount:     2,
			Sources:       []string{"paper.pdf"},
		},
	}
	server, err := NewServer(&Ports{Session: session})
	require.NoError(t, err)

	req := &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uriScheme + "session"},
	}
	result, err := server.handleSessionResource(ctx, req)

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.Contains(t, result.Contents[0].Text, `"document_count": 3`)
	assert.Contains(t, result.Contents[0].Text, `"paper.pdf"`)
}

func TestServer_handleHistoryResource(t *testing.T) {
	ctx := context.Background()

	t.Run("with turns", func(t *testing.T) {
		session := &mockSessionService{
			turns: []domain.ChatTurn{
				{Question: "What model is used?", Answer: "Llama 3.1."},
			},
		}
		server, err := NewServer(&Ports{Session: session})
		require.NoError(t, err)

		req := &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: uriScheme + "history"},
		}
		result, err := server.handleHistoryResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "What model is used?")
		assert.Contains(t, result.Contents[0].Text, "Llama 3.1.")
	})

	t.Run("empty history", func(t *testing.T) {
		session := &mockSessionService{}
		server, err := NewServer(&Ports{Session: session})
		require.NoError(t, err)

		req := &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: uriScheme + "history"},
		}
		result, err := server.handleHistoryResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})
}
