// Package mcp exposes the index over the Model Context Protocol: the query
// operations as tools, documents as a resource template and a few research
// prompts.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mdindex/internal/domain"
)

// Name and Version identify the server to MCP clients.
const (
	Name    = "MD Indexer"
	Version = "0.1.0"
)

// Queries is the read side of the index.
type Queries interface {
	SearchKeywords(ctx context.Context, keywords []string, lang string) ([]domain.FileEntry, error)
	ListFiles(ctx context.Context, lang string) ([]domain.FileEntry, error)
	KeywordCounts(ctx context.Context, lang string) ([]domain.KeywordCount, error)
	FullText(ctx context.Context, query, lang string) ([]domain.SearchHit, error)
	Fetch(ctx context.Context, name string) (string, error)
}

// Server is the MCP server for the Markdown index.
type Server struct {
	queries Queries
	server  *mcp.Server
	logger  *slog.Logger
}

// NewServer creates a server and registers its tools, resources and
// prompts.
func NewServer(queries Queries, logger *slog.Logger) (*Server, error) {
	if queries == nil {
		return nil, errors.New("queries are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		queries: queries,
		server:  mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil),
		logger:  logger.With("component", "mcp"),
	}

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// Run serves over stdio until the context is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves the MCP endpoint at path on addr, plus any extra handlers,
// until the context is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr, path string, extra map[string]http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle(path, s.Handler())
	for p, h := range extra {
		mux.Handle(p, h)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	s.logger.Info("serving MCP over HTTP", "addr", addr, "path", path)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
