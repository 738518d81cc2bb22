package services

import (
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperchat-cli/internal/logger"
)

// RefinerService rewrites context-dependent follow-up messages ("what about
// the second one?") into standalone queries using recent conversation turns.
// Refinement is best-effort and never fails a request: every degraded path
// returns the raw message.
type RefinerService struct {
	llm     driven.LLMService
	window  int
	timeout time.Duration
}

// NewRefinerService creates a refiner. The LLM is optional: when nil every
// call returns the message unchanged. A non-positive window or timeout
// falls back to the default.
func NewRefinerService(llm driven.LLMService, window int, timeout time.Duration) *RefinerService {
	if window <= 0 {
		window = domain.DefaultHistoryWindow
	}
	if timeout <= 0 {
		timeout = domain.DefaultRefineTimeout
	}
	return &RefinerService{
		llm:     llm,
		window:  window,
		timeout: timeout,
	}
}

// Refine returns a standalone version of the message. With no history the
// message is already standalone and is returned unchanged, without an LLM
// call. On any LLM failure (unavailable, error, timeout, blank output)
// the raw message is returned and a warning logged.
func (s *RefinerService) Refine(ctx context.Context, message string, history []domain.ChatTurn) string {
	message = strings.TrimSpace(message)
	if message == "" || len(history) == 0 {
		return message
	}
	if s.llm == nil {
		logger.Debug("No LLM configured, skipping refinement")
		return message
	}

	if len(history) > s.window {
		history = history[len(history)-s.window:]
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	refined, err := s.llm.RefineQuestion(ctx, message, history)
	if err != nil {
		logger.Warn("Question refinement failed, using raw message: %v", err)
		return message
	}

	refined = strings.TrimSpace(refined)
	if refined == "" {
		logger.Warn("Question refinement returned empty output, using raw message")
		return message
	}

	if refined != message {
		logger.Debug("Refined %q to %q", message, refined)
	}
	return refined
}
