package driving

import (
	"context"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

// SessionService manages conversation-scoped retrieval sessions.
// A session owns one dense index, one sparse index and the chunk corpus
// added so far; the transport layer addresses sessions by opaque ID and
// calls these operations directly; there is no implicit dispatch.
//
// Operations on one session are serialized by the service: at most one
// AddDocuments/Ask/Retrieve runs at a time per session. Distinct sessions
// run fully in parallel.
type SessionService interface {
	// Create starts a new empty session.
	Create(ctx context.Context) (*domain.SessionInfo, error)

	// AddFiles reads, normalises and indexes local files into the session.
	// Per-file and per-document failures are reported in the IngestReport
	// and do not fail the batch.
	AddFiles(ctx context.Context, sessionID string, paths []string) (*domain.IngestReport, error)

	// AddDocuments chunks, embeds and indexes page documents.
	// Documents failing validation are skipped and reported; the dense and
	// sparse indices always end the call with identical chunk populations
	// or the session is marked desynchronised.
	AddDocuments(ctx context.Context, sessionID string, docs []domain.Document) (*domain.IngestReport, error)

	// Ask answers a question: refine against history, retrieve passages,
	// generate an answer, record the turn.
	Ask(ctx context.Context, sessionID string, question string) (*domain.Answer, error)

	// Retrieve runs refinement and hybrid retrieval without generation.
	// Returns the ranked passages and the refined query used.
	Retrieve(ctx context.Context, sessionID string, query string) ([]domain.ScoredChunk, string, error)

	// History returns the session's completed turns in order.
	History(ctx context.Context, sessionID string) ([]domain.ChatTurn, error)

	// Info returns a snapshot of the session's state.
	Info(ctx context.Context, sessionID string) (*domain.SessionInfo, error)

	// Destroy releases the session's indices and corpus. The ID becomes
	// invalid; subsequent operations fail with ErrSessionClosed.
	Destroy(ctx context.Context, sessionID string) error
}
