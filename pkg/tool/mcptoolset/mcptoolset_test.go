package mcptoolset

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mcpServerStub answers initialize, tools/list, and tools/call over
// JSON-RPC HTTP the way a streamable-http server does.
func mcpServerStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Mcp-Session-Id", "session-1")

		switch req.Method {
		case "initialize":
			writeResult(w, req.ID, map[string]any{
				"protocolVersion": mcpProtocolVersion,
				"serverInfo":      map[string]any{"name": "haiku-store"},
			})
		case "tools/list":
			writeResult(w, req.ID, map[string]any{
				"tools": []any{
					map[string]any{
						"name":        "read_haikus",
						"description": "List stored haikus",
						"inputSchema": map[string]any{"type": "object"},
					},
					map[string]any{
						"name":        "delete_haiku",
						"description": "Delete a haiku",
						"inputSchema": map[string]any{"type": "object"},
					},
				},
			})
		case "tools/call":
			params := req.Params.(map[string]any)
			switch params["name"] {
			case "read_haikus":
				writeResult(w, req.ID, map[string]any{
					"content": []any{
						map[string]any{"type": "text", "text": "1: old pond"},
					},
				})
			default:
				writeResult(w, req.ID, map[string]any{
					"isError": true,
					"content": []any{
						map[string]any{"type": "text", "text": "haiku not found"},
					},
				})
			}
		default:
			t.Fatalf("unexpected method %s", req.Method)
		}
	}))
}

func writeResult(w http.ResponseWriter, id int64, result any) {
	_ = json.NewEncoder(w).Encode(jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func TestTools_LazyConnect(t *testing.T) {
	srv := mcpServerStub(t)
	defer srv.Close()

	ts, err := New(Config{Name: "store", URL: srv.URL})
	require.NoError(t, err)
	defer ts.Close()

	tools, err := ts.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "read_haikus", tools[0].Name())
	assert.Equal(t, "List stored haikus", tools[0].Description())
}

func TestTools_Filter(t *testing.T) {
	srv := mcpServerStub(t)
	defer srv.Close()

	ts, err := New(Config{Name: "store", URL: srv.URL, Filter: []string{"read_haikus"}})
	require.NoError(t, err)
	defer ts.Close()

	tools, err := ts.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "read_haikus", tools[0].Name())
}

func TestCall_Success(t *testing.T) {
	srv := mcpServerStub(t)
	defer srv.Close()

	ts, err := New(Config{Name: "store", URL: srv.URL})
	require.NoError(t, err)
	defer ts.Close()

	tools, err := ts.Tools(context.Background())
	require.NoError(t, err)

	out, err := tools[0].Call(context.Background(), map[string]any{"limit": 10})
	require.NoError(t, err)
	assert.Equal(t, "1: old pond", out)
}

func TestCall_ToolError(t *testing.T) {
	srv := mcpServerStub(t)
	defer srv.Close()

	ts, err := New(Config{Name: "store", URL: srv.URL})
	require.NoError(t, err)
	defer ts.Close()

	tools, err := ts.Tools(context.Background())
	require.NoError(t, err)

	_, err = tools[1].Call(context.Background(), map[string]any{"haiku_id": 99})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "haiku not found")
}

func TestCall_SendsSessionID(t *testing.T) {
	var sessionSeen bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if r.Header.Get("Mcp-Session-Id") == "session-1" {
			sessionSeen = true
		}
		w.Header().Set("Mcp-Session-Id", "session-1")
		w.Header().Set("Content-Type", "application/json")

		switch req.Method {
		case "initialize":
			writeResult(w, req.ID, map[string]any{})
		case "tools/list":
			writeResult(w, req.ID, map[string]any{"tools": []any{}})
		}
	}))
	defer srv.Close()

	ts, err := New(Config{Name: "store", URL: srv.URL})
	require.NoError(t, err)
	defer ts.Close()

	_, err = ts.Tools(context.Background())
	require.NoError(t, err)
	assert.True(t, sessionSeen, "session id from initialize should be echoed on tools/list")
}

func TestNew_RequiresEndpoint(t *testing.T) {
	_, err := New(Config{Name: "store"})
	require.Error(t, err)
}

func TestReadSSEResponse(t *testing.T) {
	body := "event: message\ndata: {\"jsonrpc\": \"2.0\", \"id\": 1, \"result\": {\"ok\": true}}\n\n"
	resp, err := readSSEResponse(strings.NewReader(body))
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
}

func TestReadSSEResponse_Incomplete(t *testing.T) {
	_, err := readSSEResponse(strings.NewReader("event: message\n"))
	require.Error(t, err)
}
