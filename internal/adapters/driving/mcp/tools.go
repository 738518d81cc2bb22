package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddFilesInput is the input schema for the add_files tool.
type AddFilesInput struct {
	Paths []string `json:"paths" jsonschema:"local file paths to index into the session"`
}

// SkippedOutput reports one document that could not be indexed.
type SkippedOutput struct {
	Source string `json:"source"`
	Page   int    `json:"page,omitempty"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// AddFilesOutput is the output schema for the add_files tool.
type AddFilesOutput struct {
	DocumentsAdded int             `json:"documents_added"`
	ChunksAdded    int             `json:"chunks_added"`
	Skipped        []SkippedOutput `json:"skipped,omitempty"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
}

// SourceOutput is one cited (file, page) location.
type SourceOutput struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer       string         `json:"answer"`
	RefinedQuery string         `json:"refined_query"`
	Sources      []SourceOutput `json:"sources,omitempty"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the query to retrieve passages for"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	Score   float64 `json:"score"`
	Origin  string  `json:"origin"`
	Content string  `json:"content"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages     []PassageOutput `json:"passages"`
	RefinedQuery string          `json:"refined_query"`
	Count        int             `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_files",
		Description: "Index local PDF or text files into the chat session",
	}, s.handleAddFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed documents, with page citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve the most relevant passages for a query without generating an answer",
	}, s.handleRetrieve)
}

// handleAddFiles handles the add_files tool invocation.
func (s *Server) handleAddFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddFilesInput,
) (*mcp.CallToolResult, AddFilesOutput, error) {
	sessionID, err := s.ensureSession(ctx)
	if err != nil {
		return nil, AddFilesOutput{}, err
	}

	report, err := s.ports.Session.AddFiles(ctx, sessionID, input.Paths)
	if err != nil {
		return nil, AddFilesOutput{}, err
	}

	output := AddFilesOutput{
		DocumentsAdded: report.DocumentsAdded,
		ChunksAdded:    report.ChunksAdded,
	}
	for _, skipped := range report.Skipped {
		output.Skipped = append(output.Skipped, SkippedOutput{
			Source: skipped.Source,
			Page:   skipped.Page,
			Stage:  skipped.Stage,
			Reason: skipped.Reason,
		})
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	sessionID, err := s.ensureSession(ctx)
	if err != nil {
		return nil, AskOutput{}, err
	}

	answer, err := s.ports.Session.Ask(ctx, sessionID, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:       answer.Text,
		RefinedQuery: answer.RefinedQuery,
	}
	for _, ref := range answer.Sources {
		output.Sources = append(output.Sources, SourceOutput{
			Source: ref.Source,
			Page:   ref.Page,
		})
	}

	return nil, output, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	sessionID, err := s.ensureSession(ctx)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	passages, refined, err := s.ports.Session.Retrieve(ctx, sessionID, input.Query)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Passages:     make([]PassageOutput, len(passages)),
		RefinedQuery: refined,
		Count:        len(passages),
	}
	for i := range passages {
		output.Passages[i] = PassageOutput{
			Source:  passages[i].Chunk.Source,
			Page:    passages[i].Chunk.Page,
			Score:   passages[i].Score,
			Origin:  string(passages[i].Origin),
			Content: passages[i].Chunk.Content,
		}
	}

	return nil, output, nil
}
