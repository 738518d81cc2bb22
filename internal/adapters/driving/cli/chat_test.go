package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

func TestChatCmd_Use(t *testing.T) {
	assert.Equal(t, "chat [file...]", chatCmd.Use)
}

func TestChatCmd_Short(t *testing.T) {
	assert.Equal(t, "Start an interactive chat session", chatCmd.Short)
}

// Tests run without a terminal on stdin, so the chat command falls back
// to the line-oriented loop.

func TestChatCmd_REPLAnswersEachLine(t *testing.T) {
	mock := &mockSessionService{
		answer: &domain.Answer{Text: "piped answer"},
	}
	defer swapSessionService(mock)()

	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetIn(strings.NewReader("first question\n\nsecond question\n"))
	rootCmd.SetArgs([]string{"chat"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []string{"first question", "second question"}, mock.asked)
	assert.Contains(t, out.String(), "piped answer")
	assert.Equal(t, []string{"test-session"}, mock.destroyed)
}

func TestChatCmd_REPLIndexesArgsFirst(t *testing.T) {
	mock := &mockSessionService{}
	defer swapSessionService(mock)()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs([]string{"chat", "paper.pdf"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []string{"paper.pdf"}, mock.addedPaths)
}
