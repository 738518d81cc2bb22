package mcp

import (
	"context"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	info       *domain.SessionInfo
	report     *domain.IngestReport
	answer     *domain.Answer
	passages   []domain.ScoredChunk
	refined    string
	turns      []domain.ChatTurn
	createErr  error
	addErr     error
	askErr     error
	destroyed  []string
	addedPaths []string
}

func (m *mockSessionService) Create(_ context.Context) (*domain.SessionInfo, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.info != nil {
		return m.info, nil
	}
	return &domain.SessionInfo{ID: "session-1"}, nil
}

func (m *mockSessionService) AddFiles(_ context.Context, _ string, paths []string) (*domain.IngestReport, error) {
	m.addedPaths = paths
	return m.report, m.addErr
}

func (m *mockSessionService) AddDocuments(_ context.Context, _ string, _ []domain.Document) (*domain.IngestReport, error) {
	return m.report, m.addErr
}

func (m *mockSessionService) Ask(_ context.Context, _ string, _ string) (*domain.Answer, error) {
	return m.answer, m.askErr
}

func (m *mockSessionService) Retrieve(_ context.Context, _ string, _ string) ([]domain.ScoredChunk, string, error) {
	return m.passages, m.refined, m.askErr
}

func (m *mockSessionService) History(_ context.Context, _ string) ([]domain.ChatTurn, error) {
	return m.turns, nil
}

func (m *mockSessionService) Info(_ context.Context, _ string) (*domain.SessionInfo, error) {
	if m.info != nil {
		return m.info, nil
	}
	return &domain.SessionInfo{ID: "session-1"}, nil
}

func (m *mockSessionService) Destroy(_ context.Context, sessionID string) error {
	m.destroyed = append(m.destroyed, sessionID)
	return nil
}
