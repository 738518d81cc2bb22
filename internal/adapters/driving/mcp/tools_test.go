package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

func TestServer_handleAddFiles(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ingest report", func(t *testing.T) {
		session := &mockSessionService{
			report: &domain.IngestReport{
				DocumentsAdded: 3,
				ChunksAdded:    7,
				Skipped: []domain.SkippedDocument{
					{Source: "bad.pdf", Page: 2, Stage: "validate", Reason: "empty content"},
				},
			},
		}
		server, err := NewServer(&Ports{Session: session})
		require.NoError(t, err)

		input := AddFilesInput{Paths: []string{"paper.pdf", "bad.pdf"}}
		_, output, err := server.handleAddFiles(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 3, output.DocumentsAdded)
		assert.Equal(t, 7, output.ChunksAdded)
		require.Len(t, output.Skipped, 1)
		assert.Equal(t, "bad.pdf", output.Skipped[0].Source)
		assert.Equal(t, "validate", output.Skipped[0].Stage)
		assert.Equal(t, []string{"paper.pdf", "bad.pdf"}, session.addedPaths)
	})

	t.Run("returns error on add failure", func(t *testing.T) {
		session := &mockSessionService{addErr: errors.New("add failed")}
		server, err := NewServer(&Ports{Session: session})
		require.NoError(t, err)

		_, _, err = server.handleAddFiles(ctx, nil, AddFilesInput{Paths: []string{"x.pdf"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "add failed")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with citations", func(t *testing.T) {
		session := &mockSessionService{
			answer: &domain.Answer{
				Text:         "Llama 3.1 is used.",
				RefinedQuery: "What model is used?",
				Sources: []domain.SourceRef{
					{Source: "paper.pdf", Page: 3},
				},
			},
		}
		server, err := NewServer(&Ports{Session: session})
		require.NoError(t, err)

		input := AskInput{Question: "What about that?"}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "Llama 3.1 is used.", output.Answer)
		assert.Equal(t, "What model is used?", output.RefinedQuery)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "paper.pdf", output.Sources[0].Source)
		assert.Equal(t, 3, output.Sources[0].Page)
	})

	t.Run("returns error on ask failure", func(t *testing.T) {
		session := &mockSessionService{askErr: errors.New("llm unavailable")}
		server, err := NewServer(&Ports{Session: session})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "anything"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm unavailable")
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked passages", func(t *testing.T) {
		session := &mockSessionService{
			passages: []domain.ScoredChunk{
				{
					Chunk:  domain.Chunk{Source: "paper.pdf", Page: 1, Content: "Intro text."},
					Score:  0.91,
					Origin: domain.OriginBoth,
				},
				{
					Chunk:  domain.Chunk{Source: "paper.pdf", Page: 2, Content: "Technical detail A."},
					Score:  0.77,
					Origin: domain.OriginDense,
				},
			},
			refined: "What is discussed in the introduction?",
		}
		server, err := NewServer(&Ports{Session: session})
		require.NoError(t, err)

		input := RetrieveInput{Query: "introduction"}
		_, output, err := server.handleRetrieve(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "What is discussed in the introduction?", output.RefinedQuery)
		require.Len(t, output.Passages, 2)
		assert.Equal(t, "Intro text.", output.Passages[0].Content)
		assert.Equal(t, "both", output.Passages[0].Origin)
		assert.Equal(t, 0.91, output.Passages[0].Score)
	})

	t.Run("empty session yields empty result", func(t *testing.T) {
		session := &mockSessionService{refined: "anything"}
		server, err := NewServer(&Ports{Session: session})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "anything"})
		require.NoError(t, err)
		assert.Zero(t, output.Count)
		assert.Empty(t, output.Passages)
	})
}
