package driven

import (
	"context"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

// TranscriptStore archives completed conversation turns.
// This is an optional, append-only log for the user's own records; it is
// not index persistence and is never read back into a session.
type TranscriptStore interface {
	// SaveSession records a session's creation.
	SaveSession(ctx context.Context, info domain.SessionInfo) error

	// SaveTurn appends one completed turn with its cited sources.
	SaveTurn(ctx context.Context, sessionID string, turn domain.ChatTurn, sources []domain.SourceRef) error

	// ListTurns returns the archived turns of a session in order.
	ListTurns(ctx context.Context, sessionID string) ([]domain.ChatTurn, error)

	// Close releases the underlying storage.
	Close() error
}
