// Package mcp provides an MCP (Model Context Protocol) server for the pixel
// plant. Assistants can read its status, ask it for a message, report how a
// reminder landed and feed it sensor readings.
package mcp

import (
	"context"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/pixelplant/internal/logging"
	"github.com/nvandessel/pixelplant/internal/plant"
	"github.com/nvandessel/pixelplant/internal/ratelimit"
)

// Server wraps the MCP SDK server around a shared plant.
type Server struct {
	server   *sdk.Server
	plant    *plant.Plant
	limiters ratelimit.ToolLimiters
	audit    *AuditLogger
	logger   *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "pixelplant")
	Version string // Server version

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string

	Logger *slog.Logger
}

// NewServer creates an MCP server exposing p. The plant is shared: the
// caller keeps ticking it.
func NewServer(cfg *Config, p *plant.Plant) (*Server, error) {
	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server:   mcpServer,
		plant:    p,
		limiters: ratelimit.NewToolLimiters(),
		logger:   cfg.Logger,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if cfg.AuditDir != "" {
		s.audit = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until the client disconnects, ctx is cancelled or
// the process is interrupted.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.Serve(ctx, &sdk.StdioTransport{})
}

// Serve runs the server over t until the session ends.
func (s *Server) Serve(ctx context.Context, t sdk.Transport) error {
	s.logger.Info("mcp server started")
	err := s.server.Run(ctx, t)
	s.logger.Info("mcp server stopped")
	return err
}

// Close releases the audit log.
func (s *Server) Close() error {
	return s.audit.Close()
}
