// ABOUTME: MCP server initialization and configuration for mirrorview.
// ABOUTME: Exposes catalog listing, mirror testing, and preference tools to AI agents.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/mirrorview/internal/mirror"
	"github.com/2389-research/mirrorview/internal/models"
	"github.com/2389-research/mirrorview/internal/prefs"
)

// CatalogSource is the part of catalog.Cache the tools need.
type CatalogSource interface {
	Get(ctx context.Context) (models.Catalog, error)
	Refresh(ctx context.Context) (models.Catalog, error)
}

// Server wraps the MCP server with the catalog, prober, and ranker.
type Server struct {
	mcp     *gomcp.Server
	catalog CatalogSource
	prober  *mirror.Prober
	ranker  *mirror.Ranker
	prefs   *prefs.Prefs
	logger  *slog.Logger
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithPrefs enables the favorites and recent tools.
func WithPrefs(p *prefs.Prefs) ServerOption {
	return func(s *Server) {
		s.prefs = p
	}
}

// WithLogger sets the logger. MCP stdio owns stdout, so logs must go elsewhere.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates an MCP server over the given core components.
func NewServer(catalog CatalogSource, prober *mirror.Prober, ranker *mirror.Ranker, version string, opts ...ServerOption) (*Server, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog source is required")
	}
	if prober == nil {
		return nil, fmt.Errorf("prober is required")
	}
	if ranker == nil {
		return nil, fmt.Errorf("ranker is required")
	}
	if version == "" {
		version = "dev"
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "mirrorview",
			Version: version,
		},
		nil,
	)

	s := &Server{
		mcp:     mcpServer,
		catalog: catalog,
		prober:  prober,
		ranker:  ranker,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerCatalogTools()
	s.registerMirrorTools()
	if s.prefs != nil {
		s.registerPrefsTools()
	}

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server starting", "transport", "stdio")
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}

// toolError creates an error result for MCP tool responses.
func toolError(format string, args ...any) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func textResult(text string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}
}

// findPost loads the catalog and resolves ref by link or title.
func (s *Server) findPost(ctx context.Context, ref string) (models.Post, *gomcp.CallToolResult) {
	if ref == "" {
		return models.Post{}, toolError("post is required (link or title)")
	}
	cat, err := s.catalog.Get(ctx)
	if err != nil {
		return models.Post{}, toolError("failed to load catalog: %v", err)
	}
	post, ok := cat.Find(ref)
	if !ok {
		return models.Post{}, toolError("no post matches %q", ref)
	}
	return post, nil
}
