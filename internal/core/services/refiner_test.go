package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
)

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	refineResult string
	refineErr    error
	refineDelay  time.Duration
	gotQuestion  string
	gotHistory   []domain.ChatTurn
	chatResult   string
	chatErr      error
	gotMessages  []driven.ChatMessage
}

func (m *mockLLMService) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return "", nil
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.gotMessages = messages
	if m.chatErr != nil {
		return "", m.chatErr
	}
	if m.chatResult != "" {
		return m.chatResult, nil
	}
	return "mock answer", nil
}

func (m *mockLLMService) RefineQuestion(ctx context.Context, question string, history []domain.ChatTurn) (string, error) {
	m.gotQuestion = question
	m.gotHistory = history
	if m.refineDelay > 0 {
		select {
		case <-time.After(m.refineDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.refineErr != nil {
		return "", m.refineErr
	}
	if m.refineResult != "" {
		return m.refineResult, nil
	}
	return question, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

func testHistory(n int) []domain.ChatTurn {
	history := make([]domain.ChatTurn, 0, n)
	for i := 0; i < n; i++ {
		history = append(history, domain.ChatTurn{
			Question: "question " + string(rune('a'+i)),
			Answer:   "answer " + string(rune('a'+i)),
		})
	}
	return history
}

func TestNewRefinerService_Defaults(t *testing.T) {
	service := NewRefinerService(nil, 0, 0)

	require.NotNil(t, service)
	assert.Equal(t, domain.DefaultHistoryWindow, service.window)
	assert.Equal(t, domain.DefaultRefineTimeout, service.timeout)
}

func TestRefinerService_Refine_EmptyHistory_Identity(t *testing.T) {
	llm := &mockLLMService{refineResult: "should not be used"}
	service := NewRefinerService(llm, 3, time.Second)
	ctx := context.Background()

	result := service.Refine(ctx, "what is attention?", nil)

	assert.Equal(t, "what is attention?", result)
	// No history means no LLM call at all.
	assert.Empty(t, llm.gotQuestion)
}

func TestRefinerService_Refine_EmptyMessage(t *testing.T) {
	llm := &mockLLMService{refineResult: "should not be used"}
	service := NewRefinerService(llm, 3, time.Second)
	ctx := context.Background()

	result := service.Refine(ctx, "   ", testHistory(2))

	assert.Equal(t, "", result)
	assert.Empty(t, llm.gotQuestion)
}

func TestRefinerService_Refine_NilLLM_ReturnsRaw(t *testing.T) {
	service := NewRefinerService(nil, 3, time.Second)
	ctx := context.Background()

	result := service.Refine(ctx, "and the second one?", testHistory(2))

	assert.Equal(t, "and the second one?", result)
}

func TestRefinerService_Refine_RewritesWithHistory(t *testing.T) {
	llm := &mockLLMService{refineResult: "what is the second attention head doing?"}
	service := NewRefinerService(llm, 3, time.Second)
	ctx := context.Background()

	result := service.Refine(ctx, "and the second one?", testHistory(2))

	assert.Equal(t, "what is the second attention head doing?", result)
	assert.Equal(t, "and the second one?", llm.gotQuestion)
	assert.Len(t, llm.gotHistory, 2)
}

func TestRefinerService_Refine_BoundsHistoryToWindow(t *testing.T) {
	llm := &mockLLMService{refineResult: "refined"}
	service := NewRefinerService(llm, 3, time.Second)
	ctx := context.Background()

	history := testHistory(7)
	service.Refine(ctx, "follow-up", history)

	require.Len(t, llm.gotHistory, 3)
	// The window keeps the most recent turns.
	assert.Equal(t, history[4], llm.gotHistory[0])
	assert.Equal(t, history[6], llm.gotHistory[2])
}

func TestRefinerService_Refine_ErrorFallsBackToRaw(t *testing.T) {
	llm := &mockLLMService{refineErr: errors.New("model offline")}
	service := NewRefinerService(llm, 3, time.Second)
	ctx := context.Background()

	result := service.Refine(ctx, "and the second one?", testHistory(2))

	assert.Equal(t, "and the second one?", result)
}

func TestRefinerService_Refine_EmptyResultFallsBackToRaw(t *testing.T) {
	llm := &mockLLMService{refineResult: "   \n  "}
	service := NewRefinerService(llm, 3, time.Second)
	ctx := context.Background()

	result := service.Refine(ctx, "and the second one?", testHistory(2))

	assert.Equal(t, "and the second one?", result)
}

func TestRefinerService_Refine_TimeoutFallsBackToRaw(t *testing.T) {
	llm := &mockLLMService{
		refineResult: "too late",
		refineDelay:  200 * time.Millisecond,
	}
	service := NewRefinerService(llm, 3, 10*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	result := service.Refine(ctx, "and the second one?", testHistory(2))

	assert.Equal(t, "and the second one?", result)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestRefinerService_Refine_TrimsResult(t *testing.T) {
	llm := &mockLLMService{refineResult: "  refined query \n"}
	service := NewRefinerService(llm, 3, time.Second)
	ctx := context.Background()

	result := service.Refine(ctx, "follow-up", testHistory(1))

	assert.Equal(t, "refined query", result)
}
