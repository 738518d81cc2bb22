package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

func TestQuestionSubmitted(t *testing.T) {
	t.Run("with question", func(t *testing.T) {
		msg := QuestionSubmitted{Question: "What model is used?"}
		assert.Equal(t, "What model is used?", msg.Question)
	})

	t.Run("with empty question", func(t *testing.T) {
		msg := QuestionSubmitted{}
		assert.Empty(t, msg.Question)
	})
}

func TestAnswerReceived(t *testing.T) {
	t.Run("with answer", func(t *testing.T) {
		answer := &domain.Answer{
			Text:         "Llama 3.1.",
			RefinedQuery: "What model is used?",
			Sources:      []domain.SourceRef{{Source: "paper.pdf", Page: 3}},
		}
		msg := AnswerReceived{Question: "What about that?", Answer: answer}

		require.NotNil(t, msg.Answer)
		assert.Equal(t, "Llama 3.1.", msg.Answer.Text)
		assert.Equal(t, "What about that?", msg.Question)
		assert.NoError(t, msg.Err)
	})

	t.Run("with error", func(t *testing.T) {
		msg := AnswerReceived{Err: errors.New("llm unavailable")}
		require.Error(t, msg.Err)
		assert.Nil(t, msg.Answer)
	})
}

func TestFilesIndexed(t *testing.T) {
	t.Run("with report", func(t *testing.T) {
		report := &domain.IngestReport{DocumentsAdded: 3, ChunksAdded: 8}
		msg := FilesIndexed{Paths: []string{"paper.pdf"}, Report: report}

		require.NotNil(t, msg.Report)
		assert.Equal(t, 3, msg.Report.DocumentsAdded)
		assert.Equal(t, []string{"paper.pdf"}, msg.Paths)
	})

	t.Run("with error", func(t *testing.T) {
		msg := FilesIndexed{Err: errors.New("no such file")}
		assert.Error(t, msg.Err)
	})
}

func TestSessionRefreshed(t *testing.T) {
	info := &domain.SessionInfo{ID: "session-1", ChunkCount: 12}
	msg := SessionRefreshed{Info: info}

	require.NotNil(t, msg.Info)
	assert.Equal(t, 12, msg.Info.ChunkCount)
}

func TestAnswerCopied(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		msg := AnswerCopied{}
		assert.NoError(t, msg.Err)
	})

	t.Run("failure", func(t *testing.T) {
		msg := AnswerCopied{Err: errors.New("no clipboard")}
		assert.Error(t, msg.Err)
	})
}

func TestErrorOccurred(t *testing.T) {
	err := errors.New("something broke")
	msg := ErrorOccurred{Err: err}
	assert.Equal(t, err, msg.Err)
}
