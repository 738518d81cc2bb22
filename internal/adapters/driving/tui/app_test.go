package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperchat-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

// mockSessionService implements driving.SessionService for TUI tests.
type mockSessionService struct {
	answer     *domain.Answer
	report     *domain.IngestReport
	info       *domain.SessionInfo
	askErr     error
	addErr     error
	askedWith  string
	addedPaths []string
}

func (m *mockSessionService) Create(_ context.Context) (*domain.SessionInfo, error) {
	return m.info, nil
}

func (m *mockSessionService) AddFiles(_ context.Context, _ string, paths []string) (*domain.IngestReport, error) {
	m.addedPaths = paths
	return m.report, m.addErr
}

func (m *mockSessionService) AddDocuments(_ context.Context, _ string, _ []domain.Document) (*domain.IngestReport, error) {
	return m.report, m.addErr
}

func (m *mockSessionService) Ask(_ context.Context, _ string, question string) (*domain.Answer, error) {
	m.askedWith = question
	return m.answer, m.askErr
}

func (m *mockSessionService) Retrieve(_ context.Context, _ string, query string) ([]domain.ScoredChunk, string, error) {
	return nil, query, nil
}

func (m *mockSessionService) History(_ context.Context, _ string) ([]domain.ChatTurn, error) {
	return nil, nil
}

func (m *mockSessionService) Info(_ context.Context, _ string) (*domain.SessionInfo, error) {
	return m.info, nil
}

func (m *mockSessionService) Destroy(_ context.Context, _ string) error {
	return nil
}

// mockActionService implements driving.ActionService.
type mockActionService struct {
	copied string
	err    error
}

func (m *mockActionService) CopyText(_ context.Context, text string) error {
	m.copied = text
	return m.err
}

func (m *mockActionService) OpenPath(_ context.Context, _ string) error {
	return m.err
}

func newTestChat(t *testing.T, session *mockSessionService) *Chat {
	t.Helper()
	chat, err := NewChat(&Ports{Session: session, Actions: &mockActionService{}}, "session-1")
	require.NoError(t, err)
	chat.SetDimensions(100, 30)
	return chat
}

func TestNewChat(t *testing.T) {
	t.Run("nil ports returns error", func(t *testing.T) {
		chat, err := NewChat(nil, "session-1")
		require.Error(t, err)
		assert.Nil(t, chat)
		assert.ErrorIs(t, err, ErrInvalidPorts)
	})

	t.Run("missing session service returns error", func(t *testing.T) {
		chat, err := NewChat(&Ports{}, "session-1")
		require.Error(t, err)
		assert.Nil(t, chat)
		assert.ErrorIs(t, err, ErrMissingSessionService)
	})

	t.Run("empty session ID returns error", func(t *testing.T) {
		chat, err := NewChat(&Ports{Session: &mockSessionService{}}, "")
		require.Error(t, err)
		assert.Nil(t, chat)
		assert.ErrorIs(t, err, ErrMissingSessionID)
	})

	t.Run("valid ports creates chat", func(t *testing.T) {
		chat, err := NewChat(&Ports{Session: &mockSessionService{}}, "session-1")
		require.NoError(t, err)
		require.NotNil(t, chat)
		assert.Equal(t, "session-1", chat.SessionID())
		assert.False(t, chat.Ready())
	})
}

func TestChat_WindowSize(t *testing.T) {
	chat, err := NewChat(&Ports{Session: &mockSessionService{}}, "session-1")
	require.NoError(t, err)

	model, _ := chat.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated, ok := model.(*Chat)
	require.True(t, ok)
	assert.True(t, updated.Ready())
}

func TestChat_SubmitQuestion(t *testing.T) {
	session := &mockSessionService{
		answer: &domain.Answer{
			Text:         "Llama 3.1 is used.",
			RefinedQuery: "What model is used?",
			Sources:      []domain.SourceRef{{Source: "paper.pdf", Page: 3}},
		},
	}
	chat := newTestChat(t, session)

	chat.composer.SetValue("What model is used?")
	model, cmd := chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	chat = model.(*Chat)

	require.NotNil(t, cmd)
	assert.True(t, chat.Busy())
	assert.Equal(t, 1, chat.TranscriptLen()) // user entry
	assert.Empty(t, chat.composer.Value())

	// Run the async command and feed its message back.
	msg := cmd()
	answerMsg, ok := msg.(messages.AnswerReceived)
	require.True(t, ok)
	require.NoError(t, answerMsg.Err)
	assert.Equal(t, "What model is used?", session.askedWith)

	model, _ = chat.Update(answerMsg)
	chat = model.(*Chat)
	assert.False(t, chat.Busy())
	assert.Equal(t, 2, chat.TranscriptLen())
	require.NotNil(t, chat.LastAnswer())
	assert.Equal(t, "Llama 3.1 is used.", chat.LastAnswer().Text)
}

func TestChat_SubmitWhileBusy(t *testing.T) {
	chat := newTestChat(t, &mockSessionService{answer: &domain.Answer{Text: "ok"}})

	chat.composer.SetValue("first question")
	model, cmd := chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	chat = model.(*Chat)
	require.NotNil(t, cmd)
	require.True(t, chat.Busy())

	chat.composer.SetValue("second question")
	_, cmd = chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, chat.TranscriptLen())
}

func TestChat_SubmitEmptyInput(t *testing.T) {
	chat := newTestChat(t, &mockSessionService{})

	_, cmd := chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, chat.Busy())
	assert.Zero(t, chat.TranscriptLen())
}

func TestChat_AskError(t *testing.T) {
	session := &mockSessionService{askErr: errors.New("llm unavailable")}
	chat := newTestChat(t, session)

	chat.composer.SetValue("anything")
	model, cmd := chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	chat = model.(*Chat)
	require.NotNil(t, cmd)

	model, _ = chat.Update(cmd())
	chat = model.(*Chat)
	assert.False(t, chat.Busy())
	require.Error(t, chat.Err())
	assert.Contains(t, chat.Err().Error(), "llm unavailable")
}

func TestChat_AddCommand(t *testing.T) {
	session := &mockSessionService{
		report: &domain.IngestReport{DocumentsAdded: 3, ChunksAdded: 7},
	}
	chat := newTestChat(t, session)

	chat.composer.SetValue("/add notes.pdf extra.md")
	model, cmd := chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	chat = model.(*Chat)
	require.NotNil(t, cmd)
	assert.True(t, chat.Busy())

	msg := cmd()
	indexed, ok := msg.(messages.FilesIndexed)
	require.True(t, ok)
	require.NoError(t, indexed.Err)
	assert.Equal(t, []string{"notes.pdf", "extra.md"}, session.addedPaths)

	model, _ = chat.Update(indexed)
	chat = model.(*Chat)
	assert.False(t, chat.Busy())
	// Notice for the start of indexing plus the report summary.
	assert.Equal(t, 2, chat.TranscriptLen())
}

func TestChat_AddCommandWithoutPaths(t *testing.T) {
	chat := newTestChat(t, &mockSessionService{})

	chat.composer.SetValue("/add")
	_, cmd := chat.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, chat.Busy())
}

func TestParseAddCommand(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantPaths []string
		wantOK    bool
	}{
		{
			name:      "add with one path",
			line:      "/add paper.pdf",
			wantPaths: []string{"paper.pdf"},
			wantOK:    true,
		},
		{
			name:      "add with several paths",
			line:      "/add a.pdf b.md",
			wantPaths: []string{"a.pdf", "b.md"},
			wantOK:    true,
		},
		{
			name:      "bare add",
			line:      "/add",
			wantPaths: []string{},
			wantOK:    true,
		},
		{
			name:   "plain question",
			line:   "what about addition?",
			wantOK: false,
		},
		{
			name:   "add as prefix of a word",
			line:   "/addendum",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths, ok := parseAddCommand(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.ElementsMatch(t, tt.wantPaths, paths)
			}
		})
	}
}

func TestChat_CopyAnswer(t *testing.T) {
	t.Run("no answer yet", func(t *testing.T) {
		chat := newTestChat(t, &mockSessionService{})
		cmd := chat.copyLastAnswer()
		assert.Nil(t, cmd)
	})

	t.Run("copies last answer", func(t *testing.T) {
		actions := &mockActionService{}
		chat, err := NewChat(&Ports{Session: &mockSessionService{}, Actions: actions}, "session-1")
		require.NoError(t, err)
		chat.SetDimensions(100, 30)
		chat.lastAnswer = &domain.Answer{Text: "the answer"}

		cmd := chat.copyLastAnswer()
		require.NotNil(t, cmd)
		msg := cmd()
		copied, ok := msg.(messages.AnswerCopied)
		require.True(t, ok)
		assert.NoError(t, copied.Err)
		assert.Equal(t, "the answer", actions.copied)
	})
}

func TestChat_View(t *testing.T) {
	t.Run("before sizing", func(t *testing.T) {
		chat, err := NewChat(&Ports{Session: &mockSessionService{}}, "session-1")
		require.NoError(t, err)
		assert.Contains(t, chat.View(), "Initialising")
	})

	t.Run("after sizing", func(t *testing.T) {
		chat := newTestChat(t, &mockSessionService{})
		view := chat.View()
		assert.Contains(t, view, "paperchat")
	})
}

func TestSummariseReport(t *testing.T) {
	t.Run("nil report", func(t *testing.T) {
		assert.Equal(t, "Indexed 0 pages.", summariseReport(nil))
	})

	t.Run("with skipped documents", func(t *testing.T) {
		text := summariseReport(&domain.IngestReport{
			DocumentsAdded: 2,
			ChunksAdded:    5,
			Skipped: []domain.SkippedDocument{
				{Source: "bad.pdf", Page: 1, Stage: "validate", Reason: "empty content"},
			},
		})
		assert.Contains(t, text, "Indexed 2 pages (5 chunks).")
		assert.Contains(t, text, "Skipped bad.pdf (validate): empty content")
	})
}

func TestChat_SessionRefreshed(t *testing.T) {
	chat := newTestChat(t, &mockSessionService{})

	info := &domain.SessionInfo{ID: "session-1", DocumentCount: 3, ChunkCount: 9}
	model, _ := chat.Update(messages.SessionRefreshed{Info: info})
	chat = model.(*Chat)
	assert.Equal(t, info, chat.statusbar.Info())
}
