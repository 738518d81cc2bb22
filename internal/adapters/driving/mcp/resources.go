package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for paperchat resources.
	uriScheme = "paperchat://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the session snapshot.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "session",
		Name:        "session",
		Description: "Snapshot of the chat session: indexed sources and counts",
		MIMEType:    "application/json",
	}, s.handleSessionResource)

	// Static resource for the conversation history.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Completed (question, answer) turns of the session",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleSessionResource returns the session snapshot.
func (s *Server) handleSessionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sessionID, err := s.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	info, err := s.ports.Session.Info(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading session info: %w", err)
	}

	type sessionInfo struct {
		ID            string   `json:"id"`
		DocumentCount int      `json:"document_count"`
		ChunkCount    int      `json:"chunk_count"`
		TurnCount     int      `json:"turn_count"`
		Sources       []string `json:"sources"`
	}

	data, err := json.MarshalIndent(sessionInfo{
		ID:            info.ID,
		DocumentCount: info.DocumentCount,
		ChunkCount:    info.ChunkCount,
		TurnCount:     info.TurnCount,
		Sources:       info.Sources,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling session info: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleHistoryResource returns the conversation history.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sessionID, err := s.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	turns, err := s.ports.Session.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	type turnInfo struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}

	infos := make([]turnInfo, len(turns))
	for i, turn := range turns {
		infos[i] = turnInfo{Question: turn.Question, Answer: turn.Answer}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling history: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
