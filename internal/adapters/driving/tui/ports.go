// Package tui provides the interactive chat interface for paperchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the chat TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Session manages the conversation-scoped retrieval session.
	Session driving.SessionService

	// Actions provides OS-level actions on answers (clipboard, open).
	Actions driving.ActionService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(session driving.SessionService, actions driving.ActionService) *Ports {
	return &Ports{
		Session: session,
		Actions: actions,
	}
}

// Validate ensures all required ports are set.
// Actions is optional: without it copy-to-clipboard is disabled but the
// chat still works.
func (p *Ports) Validate() error {
	if p.Session == nil {
		return ErrMissingSessionService
	}
	return nil
}
