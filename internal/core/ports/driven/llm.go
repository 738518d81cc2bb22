package driven

import (
	"context"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

// LLMService provides language model operations for question answering.
// This is an optional service - when nil, question refinement degrades to
// the raw message and answer generation is disabled (retrieval still works).
//
// Implementations may include:
//   - OpenAI-compatible endpoints (GPT models, hosted Llama gateways)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// RefineQuestion rewrites a context-dependent user message into a
	// standalone query using recent conversation turns. The caller bounds
	// history to the configured window before calling. An error here is
	// always recoverable: callers fall back to the raw message.
	RefineQuestion(ctx context.Context, question string, history []domain.ChatTurn) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
