package domain

import "time"

// SessionInfo is a read-only snapshot of one conversation-scoped index.
// The session itself (indices, corpus, history) lives behind the session
// service; callers address it by ID only.
type SessionInfo struct {
	// ID is the opaque session identifier.
	ID string

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// DocumentCount is the number of indexed page documents.
	DocumentCount int

	// ChunkCount is the number of chunks held by both indices.
	ChunkCount int

	// TurnCount is the number of completed (question, answer) turns.
	TurnCount int

	// Sources lists the distinct source file names added so far,
	// in first-upload order.
	Sources []string
}
