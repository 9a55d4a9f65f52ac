package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoAgent shouts its input back, or fails on demand.
type echoAgent struct {
	fail bool
}

func (a *echoAgent) Card() *AgentCard {
	return &AgentCard{
		Name:        "echo",
		Description: "shouts back",
		Version:     "1.0.0",
		Skills:      []AgentSkill{{ID: "echo", Name: "Echo"}},
	}
}

func (a *echoAgent) Execute(_ context.Context, input string) (string, error) {
	if a.fail {
		return "", fmt.Errorf("model unavailable")
	}
	return strings.ToUpper(input), nil
}

func newTestServer(t *testing.T, agent Agent, cfg *ServerConfig) *httptest.Server {
	t.Helper()
	srv, err := NewServer(agent, cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestServer_AgentCard(t *testing.T) {
	ts := newTestServer(t, &echoAgent{}, &ServerConfig{BaseURL: "http://example.com"})

	card, err := NewCardResolver().Resolve(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, "echo", card.Name)
	assert.Equal(t, ts.URL, card.URL)
	assert.False(t, card.SupportsAuthenticatedExtendedCard)
}

func TestServer_ExtendedCard(t *testing.T) {
	extended := &AgentCard{
		Name:   "echo",
		Skills: []AgentSkill{{ID: "echo"}, {ID: "echo_internal"}},
	}
	ts := newTestServer(t, &echoAgent{}, &ServerConfig{ExtendedCard: extended})

	t.Run("advertised on public card", func(t *testing.T) {
		resp, err := http.Get(ts.URL + AgentCardPath)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("rejected without token", func(t *testing.T) {
		resp, err := http.Get(ts.URL + ExtendedCardPath)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("served with any bearer token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+ExtendedCardPath, nil)
		req.Header.Set("Authorization", "Bearer "+DefaultExtendedCardToken)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("resolver picks up extended card", func(t *testing.T) {
		card, err := NewCardResolver().Resolve(context.Background(), ts.URL)
		require.NoError(t, err)
		assert.Len(t, card.Skills, 2)
	})
}

func TestServer_ExtendedCardNotConfigured(t *testing.T) {
	ts := newTestServer(t, &echoAgent{}, nil)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+ExtendedCardPath, nil)
	req.Header.Set("Authorization", "Bearer anything")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_MessageSend(t *testing.T) {
	ts := newTestServer(t, &echoAgent{}, nil)

	result := NewClient(nil).Call(context.Background(), ts.URL, "quiet pond")

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "QUIET POND", result.Content)
}

func TestServer_ExecutionFailure(t *testing.T) {
	ts := newTestServer(t, &echoAgent{fail: true}, nil)

	result := NewClient(nil).Call(context.Background(), ts.URL, "quiet pond")

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Message, "model unavailable")
}

func TestServer_MethodNotFound(t *testing.T) {
	ts := newTestServer(t, &echoAgent{}, nil)

	body := `{"jsonrpc": "2.0", "id": "1", "method": "tasks/get", "params": {}}`
	resp, err := http.Post(ts.URL, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope SendMessageResponse
	require.NoError(t, decodeBody(resp, &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, CodeMethodNotFound, envelope.Error.Code)
}

func TestServer_ParseError(t *testing.T) {
	ts := newTestServer(t, &echoAgent{}, nil)

	resp, err := http.Post(ts.URL, "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope SendMessageResponse
	require.NoError(t, decodeBody(resp, &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, CodeParseError, envelope.Error.Code)
}

func TestServer_MissingTextPart(t *testing.T) {
	ts := newTestServer(t, &echoAgent{}, nil)

	body := `{"jsonrpc": "2.0", "id": "1", "method": "message/send",
		"params": {"message": {"role": "user", "parts": []}}}`
	resp, err := http.Post(ts.URL, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope SendMessageResponse
	require.NoError(t, decodeBody(resp, &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, CodeInvalidParams, envelope.Error.Code)
}

func TestServer_NilAgent(t *testing.T) {
	_, err := NewServer(nil, nil)
	require.Error(t, err)
}

func decodeBody(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
