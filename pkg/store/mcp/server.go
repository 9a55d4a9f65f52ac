// Package mcp exposes the haiku store over the Model Context Protocol
// using streamable HTTP transport, so any MCP-speaking agent can manage
// the collection.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/haikumesh/haikumesh/pkg/logger"
	"github.com/haikumesh/haikumesh/pkg/store"
)

// ServerConfig configures the MCP store server.
type ServerConfig struct {
	// Addr to listen on, e.g. ":8075".
	Addr string

	// Name and Version are reported to MCP clients during initialize.
	Name    string
	Version string

	// Path is the HTTP endpoint path. Defaults to "/mcp".
	Path string
}

// Server serves the haiku store tools over MCP.
type Server struct {
	store      *store.Store
	cfg        ServerConfig
	mcpServer  *mcpserver.MCPServer
	httpServer *mcpserver.StreamableHTTPServer
	logger     *slog.Logger
}

// NewServer creates the MCP server over st.
func NewServer(st *store.Store, cfg ServerConfig) *Server {
	if cfg.Name == "" {
		cfg.Name = "haiku-store"
	}
	if cfg.Path == "" {
		cfg.Path = "/mcp"
	}

	s := &Server{
		store: st,
		cfg:   cfg,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(true)),
		logger: logger.GetLogger(),
	}
	s.registerTools()
	return s
}

// MCPServer exposes the underlying MCP server, mainly for tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Start serves MCP over streamable HTTP and blocks until stopped.
func (s *Server) Start() error {
	s.httpServer = mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(s.cfg.Path))

	s.logger.Info("mcp store server listening",
		"addr", s.cfg.Addr, "path", s.cfg.Path)
	return s.httpServer.Start(s.cfg.Addr)
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.createHaikuTool(),
		s.readHaikusTool(),
		s.searchHaikusTool(),
		s.readHaikuTool(),
		s.deleteHaikuTool(),
	)
}

func (s *Server) createHaikuTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("create_haiku",
		mcplib.WithDescription("Create a new haiku and add it to the store"),
		mcplib.WithString("text",
			mcplib.Required(),
			mcplib.Description("The haiku text, lines separated by newlines"),
		),
		mcplib.WithNumber("score",
			mcplib.Required(),
			mcplib.Description("Quality score between 1 and 100"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleCreateHaiku}
}

func (s *Server) readHaikusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("read_haikus",
		mcplib.WithDescription("List stored haikus with pagination"),
		mcplib.WithNumber("offset",
			mcplib.Description("Number of haikus to skip (default 0)"),
		),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum haikus to return (default 10)"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleReadHaikus}
}

func (s *Server) searchHaikusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("search_haikus",
		mcplib.WithDescription("Search haikus by text content or minimum score"),
		mcplib.WithString("query",
			mcplib.Description("Substring to find in haiku text"),
		),
		mcplib.WithNumber("min_score",
			mcplib.Description("Only return haikus scoring at least this"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleSearchHaikus}
}

func (s *Server) readHaikuTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("read_haiku",
		mcplib.WithDescription("Get a single haiku by its ID"),
		mcplib.WithNumber("haiku_id",
			mcplib.Required(),
			mcplib.Description("The haiku ID to look up"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleReadHaiku}
}

func (s *Server) deleteHaikuTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("delete_haiku",
		mcplib.WithDescription("Delete a haiku by its ID"),
		mcplib.WithNumber("haiku_id",
			mcplib.Required(),
			mcplib.Description("The haiku ID to delete"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleDeleteHaiku}
}

func (s *Server) handleCreateHaiku(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	args := req.GetArguments()

	text, ok := args["text"].(string)
	if !ok || text == "" {
		return mcplib.NewToolResultError("text is required"), nil
	}
	score, ok := numberArg(args, "score")
	if !ok {
		return mcplib.NewToolResultError("score is required"), nil
	}

	haiku, err := s.store.Create(ctx, text, score)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to create haiku", err), nil
	}
	return resultJSON(haiku)
}

func (s *Server) handleReadHaikus(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	args := req.GetArguments()
	offset, _ := numberArg(args, "offset")
	limit, _ := numberArg(args, "limit")

	haikus, err := s.store.List(ctx, offset, limit)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list haikus", err), nil
	}
	return resultJSON(haikus)
}

func (s *Server) handleSearchHaikus(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	minScore, _ := numberArg(args, "min_score")

	haikus, err := s.store.Search(ctx, query, minScore)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to search haikus", err), nil
	}
	return resultJSON(haikus)
}

func (s *Server) handleReadHaiku(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, ok := numberArg(req.GetArguments(), "haiku_id")
	if !ok {
		return mcplib.NewToolResultError("haiku_id is required"), nil
	}

	haiku, err := s.store.Get(ctx, int64(id))
	if errors.Is(err, store.ErrNotFound) {
		return mcplib.NewToolResultError(fmt.Sprintf("haiku %d not found", id)), nil
	}
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to read haiku", err), nil
	}
	return resultJSON(haiku)
}

func (s *Server) handleDeleteHaiku(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id, ok := numberArg(req.GetArguments(), "haiku_id")
	if !ok {
		return mcplib.NewToolResultError("haiku_id is required"), nil
	}

	err := s.store.Delete(ctx, int64(id))
	if errors.Is(err, store.ErrNotFound) {
		return resultJSON(map[string]any{"ok": false, "message": "Haiku not found"})
	}
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to delete haiku", err), nil
	}
	return resultJSON(map[string]any{"ok": true, "message": "Haiku deleted successfully"})
}

// numberArg reads a JSON number argument as int.
func numberArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func resultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}
