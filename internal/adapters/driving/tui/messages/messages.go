// Package messages defines Bubbletea message types for the chat TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

// QuestionSubmitted is sent when the user submits a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries a completed answer back to the model.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// FilesIndexed carries the result of an /add command back to the model.
type FilesIndexed struct {
	Paths  []string
	Report *domain.IngestReport
	Err    error
}

// SessionRefreshed carries an updated session snapshot for the status bar.
type SessionRefreshed struct {
	Info *domain.SessionInfo
	Err  error
}

// AnswerCopied signals the result of copying an answer to the clipboard.
type AnswerCopied struct {
	Err error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
