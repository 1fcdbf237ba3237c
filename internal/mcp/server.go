// Package mcp exposes the session history to MCP clients over stdio.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jwulff/meetnotes/internal/export"
	"github.com/jwulff/meetnotes/internal/session"
)

// History is the read side of the session store.
type History interface {
	Load(ctx context.Context) ([]session.Session, error)
}

// Server wraps an MCP server with the meetnotes tools registered.
type Server struct {
	mcp     *server.MCPServer
	history History
	logger  *zap.Logger
}

type sessionSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Duration int    `json:"duration"`
	Summary  string `json:"summary,omitempty"`
}

// NewServer registers list_sessions and get_session.
func NewServer(history History, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp:     server.NewMCPServer("meetnotes", version, server.WithToolCapabilities(false)),
		history: history,
		logger:  logger,
	}

	s.mcp.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List recorded meetings, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return (default all)")),
	), s.listSessions)

	s.mcp.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get one recorded meeting with its transcript, summary and action items."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session id from list_sessions")),
		mcp.WithString("format", mcp.Description("md (default), json or yaml")),
	), s.getSession)

	return s
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.history.Load(ctx)
	if err != nil {
		s.logger.Error("mcp list_sessions", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("load sessions: %v", err)), nil
	}

	limit := req.GetInt("limit", 0)
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}

	out := make([]sessionSummary, 0, len(list))
	for _, sess := range list {
		out = append(out, sessionSummary{
			ID:       sess.ID,
			Title:    sess.Title,
			Date:     sess.Date,
			Duration: sess.Duration,
			Summary:  sess.Summary,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	exporter, err := export.NewExporter(req.GetString("format", "md"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	list, err := s.history.Load(ctx)
	if err != nil {
		s.logger.Error("mcp get_session", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("load sessions: %v", err)), nil
	}
	for _, sess := range list {
		if sess.ID != id {
			continue
		}
		var buf bytes.Buffer
		if err := exporter.Export([]session.Session{sess}, &buf); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(buf.String()), nil
	}
	return mcp.NewToolResultError(fmt.Sprintf("session %s not found", id)), nil
}
