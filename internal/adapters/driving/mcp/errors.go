// Package mcp provides an MCP (Model Context Protocol) server adapter for
// paperchat. It lets AI assistants index documents and query the hybrid
// retrieval session through tools and resources.
package mcp

import "errors"

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("mcp: session service is required")
