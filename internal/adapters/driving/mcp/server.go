package mcp

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/paperchat-cli/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Server is the MCP server for paperchat. It owns one retrieval session,
// created on first use and destroyed when the server shuts down; every
// tool and resource operates on that session.
type Server struct {
	ports  *Ports
	server *mcp.Server

	mu        sync.Mutex
	sessionID string
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "paperchat",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, nil),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// ensureSession lazily creates the server's session.
func (s *Server) ensureSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionID != "" {
		return s.sessionID, nil
	}

	info, err := s.ports.Session.Create(ctx)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	s.sessionID = info.ID
	return s.sessionID, nil
}

// Preload indexes the given files into the server's session before it
// starts serving, so clients can ask immediately. Per-document problems
// are logged, not fatal.
func (s *Server) Preload(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	sessionID, err := s.ensureSession(ctx)
	if err != nil {
		return err
	}

	report, err := s.ports.Session.AddFiles(ctx, sessionID, paths)
	if err != nil {
		return fmt.Errorf("indexing files: %w", err)
	}
	if report != nil {
		for _, skipped := range report.Skipped {
			logger.Warn("skipped %s (%s): %s", skipped.Source, skipped.Stage, skipped.Reason)
		}
	}
	return nil
}

// Close destroys the server's session, if one was created.
func (s *Server) Close() {
	s.mu.Lock()
	id := s.sessionID
	s.sessionID = ""
	s.mu.Unlock()

	if id == "" {
		return
	}
	if err := s.ports.Session.Destroy(context.Background(), id); err != nil {
		logger.Warn("destroying MCP session: %v", err)
	}
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	defer s.Close()

	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
