// Package mcptoolset exposes the tools of an MCP (Model Context
// Protocol) server as a tool.Toolset.
//
// The connection is lazy: nothing talks to the server until Tools() is
// first called.
//
// Transport support:
//   - stdio: subprocess communication via the mcp-go client
//   - streamable-http: JSON-RPC over HTTP with retry/backoff
package mcptoolset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/haikumesh/haikumesh/pkg/httpclient"
	"github.com/haikumesh/haikumesh/pkg/logger"
	"github.com/haikumesh/haikumesh/pkg/observability"
	"github.com/haikumesh/haikumesh/pkg/tool"
)

const mcpProtocolVersion = "2024-11-05"

// Config configures an MCP toolset.
type Config struct {
	// Name identifies this toolset.
	Name string

	// URL is the MCP server URL (HTTP transport).
	URL string

	// Command starts a subprocess server (stdio transport). Takes
	// precedence over URL when both are set.
	Command string

	// Args for the stdio subprocess.
	Args []string

	// Env for the stdio subprocess, as KEY=VALUE pairs.
	Env []string

	// Filter limits which tools are exposed. Empty means all.
	Filter []string

	// MaxRetries for HTTP requests. Zero means 3.
	MaxRetries int

	// Timeout per HTTP request. Zero means 30s.
	Timeout time.Duration
}

// Toolset is an MCP-backed toolset with lazy initialization.
type Toolset struct {
	cfg    Config
	logger *slog.Logger

	mu         sync.Mutex
	stdio      *client.Client
	httpClient *httpclient.Client
	tools      []tool.Tool
	connected  bool
	filterSet  map[string]bool

	sessionMu sync.RWMutex
	sessionID string

	nextID atomic.Int64
}

// New creates a new MCP toolset.
func New(cfg Config) (*Toolset, error) {
	if cfg.URL == "" && cfg.Command == "" {
		return nil, fmt.Errorf("either url or command is required")
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	var filterSet map[string]bool
	if len(cfg.Filter) > 0 {
		filterSet = make(map[string]bool, len(cfg.Filter))
		for _, name := range cfg.Filter {
			filterSet[name] = true
		}
	}

	return &Toolset{
		cfg:       cfg,
		logger:    logger.GetLogger(),
		filterSet: filterSet,
	}, nil
}

// Name returns the toolset name.
func (t *Toolset) Name() string {
	return t.cfg.Name
}

// Tools returns the available tools, connecting on first call.
func (t *Toolset) Tools(ctx context.Context) ([]tool.Tool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		if err := t.connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to MCP server: %w", err)
		}
	}
	return t.tools, nil
}

// Close shuts down the connection.
func (t *Toolset) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	if t.stdio != nil {
		err = t.stdio.Close()
		t.stdio = nil
	}
	t.httpClient = nil
	t.tools = nil
	t.connected = false
	return err
}

func (t *Toolset) connect(ctx context.Context) error {
	if t.cfg.Command != "" {
		return t.connectStdio(ctx)
	}
	return t.connectHTTP(ctx)
}

// connectStdio starts the subprocess server and handshakes over stdio.
func (t *Toolset) connectStdio(ctx context.Context) error {
	mcpClient, err := client.NewStdioMCPClient(t.cfg.Command, t.cfg.Env, t.cfg.Args...)
	if err != nil {
		return fmt.Errorf("failed to create MCP client: %w", err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MCP client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "haikumesh",
		Version: "1.0.0",
	}
	initReq.Params.ProtocolVersion = mcpProtocolVersion

	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return fmt.Errorf("failed to initialize MCP: %w", err)
	}

	listResp, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		mcpClient.Close()
		return fmt.Errorf("failed to list tools: %w", err)
	}

	var tools []tool.Tool
	for _, mcpTool := range listResp.Tools {
		if t.filterSet != nil && !t.filterSet[mcpTool.Name] {
			continue
		}
		tools = append(tools, &remoteTool{
			toolset:  t,
			name:     mcpTool.Name,
			desc:     mcpTool.Description,
			schema:   convertSchema(mcpTool.InputSchema),
			useStdio: true,
		})
	}

	t.stdio = mcpClient
	t.tools = tools
	t.connected = true

	t.logger.Info("connected to MCP server",
		"name", t.cfg.Name, "transport", "stdio",
		"command", t.cfg.Command, "tools", len(tools))
	return nil
}

// connectHTTP handshakes over JSON-RPC HTTP.
func (t *Toolset) connectHTTP(ctx context.Context) error {
	t.httpClient = httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: t.cfg.Timeout}),
		httpclient.WithMaxRetries(t.cfg.MaxRetries),
	)

	initResp, err := t.rpc(ctx, "initialize", map[string]any{
		"protocolVersion": mcpProtocolVersion,
		"clientInfo": map[string]any{
			"name":    "haikumesh",
			"version": "1.0.0",
		},
		"capabilities": map[string]any{},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize MCP: %w", err)
	}
	if initResp.Error != nil {
		return fmt.Errorf("MCP init error: %s", initResp.Error.Message)
	}

	listResp, err := t.rpc(ctx, "tools/list", nil)
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}
	if listResp.Error != nil {
		return fmt.Errorf("MCP list error: %s", listResp.Error.Message)
	}

	resultMap, ok := listResp.Result.(map[string]any)
	if !ok {
		return fmt.Errorf("unexpected result type from tools/list")
	}
	toolsList, ok := resultMap["tools"].([]any)
	if !ok {
		return fmt.Errorf("missing tools in tools/list response")
	}

	var tools []tool.Tool
	for _, raw := range toolsList {
		toolMap, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		name, _ := toolMap["name"].(string)
		desc, _ := toolMap["description"].(string)
		if t.filterSet != nil && !t.filterSet[name] {
			continue
		}

		schema, _ := toolMap["inputSchema"].(map[string]any)
		tools = append(tools, &remoteTool{
			toolset: t,
			name:    name,
			desc:    desc,
			schema:  schema,
		})
	}

	t.tools = tools
	t.connected = true

	t.logger.Info("connected to MCP server",
		"name", t.cfg.Name, "transport", "http",
		"url", t.cfg.URL, "tools", len(tools))
	return nil
}

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *jsonRPCError `json:"error,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpc sends one JSON-RPC request over HTTP and decodes the response,
// following the streamable-http session header convention.
func (t *Toolset) rpc(ctx context.Context, method string, params any) (*jsonRPCResponse, error) {
	req := jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      t.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")

	t.sessionMu.RLock()
	sessionID := t.sessionID
	t.sessionMu.RUnlock()
	if sessionID != "" {
		httpReq.Header.Set("Mcp-Session-Id", sessionID)
	}

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if newSessionID := httpResp.Header.Get("Mcp-Session-Id"); newSessionID != "" {
		t.sessionMu.Lock()
		t.sessionID = newSessionID
		t.sessionMu.Unlock()
	}

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(respBody))
	}

	if strings.Contains(httpResp.Header.Get("Content-Type"), "text/event-stream") {
		return readSSEResponse(httpResp.Body)
	}

	var resp jsonRPCResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}

// readSSEResponse reads the first complete JSON-RPC message from an SSE
// body. Streamable-http servers answer single requests this way.
func readSSEResponse(body io.Reader) (*jsonRPCResponse, error) {
	reader := bufio.NewReader(body)
	var data strings.Builder

	flush := func() *jsonRPCResponse {
		if data.Len() == 0 {
			return nil
		}
		var resp jsonRPCResponse
		if err := json.Unmarshal([]byte(data.String()), &resp); err == nil {
			return &resp
		}
		data.Reset()
		return nil
	}

	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if resp := flush(); resp != nil {
				return resp, nil
			}
		} else if after, ok := strings.CutPrefix(trimmed, "data:"); ok {
			data.WriteString(strings.TrimSpace(after))
		}

		if err != nil {
			if resp := flush(); resp != nil {
				return resp, nil
			}
			return nil, fmt.Errorf("SSE stream ended without complete message")
		}
	}
}

// remoteTool wraps a remote MCP tool as a tool.Tool.
type remoteTool struct {
	toolset  *Toolset
	name     string
	desc     string
	schema   map[string]any
	useStdio bool
}

func (w *remoteTool) Name() string           { return w.name }
func (w *remoteTool) Description() string    { return w.desc }
func (w *remoteTool) Schema() map[string]any { return w.schema }

func (w *remoteTool) Call(ctx context.Context, args map[string]any) (string, error) {
	start := time.Now()
	var result string
	var err error
	if w.useStdio {
		result, err = w.callStdio(ctx, args)
	} else {
		result, err = w.callHTTP(ctx, args)
	}
	observability.GetGlobalMetrics().RecordToolExecution(ctx, w.name, time.Since(start), err)
	return result, err
}

func (w *remoteTool) callStdio(ctx context.Context, args map[string]any) (string, error) {
	w.toolset.mu.Lock()
	mcpClient := w.toolset.stdio
	w.toolset.mu.Unlock()

	if mcpClient == nil {
		return "", fmt.Errorf("MCP client not connected")
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = w.name
	req.Params.Arguments = args

	resp, err := mcpClient.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("MCP call failed: %w", err)
	}

	text := collectText(resp)
	if resp.IsError {
		if text == "" {
			text = "unknown error"
		}
		return "", fmt.Errorf("%s", text)
	}
	return text, nil
}

func (w *remoteTool) callHTTP(ctx context.Context, args map[string]any) (string, error) {
	resp, err := w.toolset.rpc(ctx, "tools/call", map[string]any{
		"name":      w.name,
		"arguments": args,
	})
	if err != nil {
		return "", fmt.Errorf("MCP call failed: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%s", resp.Error.Message)
	}

	resultMap, ok := resp.Result.(map[string]any)
	if !ok {
		return fmt.Sprintf("%v", resp.Result), nil
	}

	var texts []string
	if content, ok := resultMap["content"].([]any); ok {
		for _, c := range content {
			if cm, ok := c.(map[string]any); ok && cm["type"] == "text" {
				if text, ok := cm["text"].(string); ok {
					texts = append(texts, text)
				}
			}
		}
	}
	text := strings.Join(texts, "\n")

	if isError, _ := resultMap["isError"].(bool); isError {
		if text == "" {
			text = "unknown error"
		}
		return "", fmt.Errorf("%s", text)
	}
	return text, nil
}

func collectText(resp *mcp.CallToolResult) string {
	var texts []string
	for _, content := range resp.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			texts = append(texts, textContent.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func convertSchema(schema mcp.ToolInputSchema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

var (
	_ tool.Toolset = (*Toolset)(nil)
	_ tool.Tool    = (*remoteTool)(nil)
)
