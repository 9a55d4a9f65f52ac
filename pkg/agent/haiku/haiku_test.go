package haiku

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haikumesh/haikumesh/pkg/a2a"
	"github.com/haikumesh/haikumesh/pkg/model"
)

// toolOnceLLM issues a single tool call, then relays the tool result as
// its final answer.
type toolOnceLLM struct {
	callTool string
	args     map[string]any
	called   bool
}

func (l *toolOnceLLM) Name() string { return "tool-once" }

func (l *toolOnceLLM) Generate(_ context.Context, req *model.Request) (*model.Response, error) {
	if !l.called {
		l.called = true
		return &model.Response{ToolCalls: []model.ToolCall{{ID: "c1", Name: l.callTool, Args: l.args}}}, nil
	}
	last := req.Messages[len(req.Messages)-1]
	return &model.Response{Text: last.ToolResults[0].Content}, nil
}

func (l *toolOnceLLM) Close() error { return nil }

// validatorBackedLLM drives the root agent like toolOnceLLM, but also
// answers requests made by the embedded validator with a fixed verdict.
type validatorBackedLLM struct {
	toolOnceLLM
	verdict string
}

func (l *validatorBackedLLM) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	if strings.Contains(req.SystemInstruction, "haiku validator") {
		return &model.Response{Text: l.verdict}, nil
	}
	return l.toolOnceLLM.Generate(ctx, req)
}

// verdictAgent serves a canned validator verdict over the wire.
type verdictAgent struct {
	verdict string
}

func (a *verdictAgent) Card() *a2a.AgentCard {
	return &a2a.AgentCard{Name: "haiku_validator_agent", Version: "1.0.0"}
}

func (a *verdictAgent) Execute(_ context.Context, _ string) (string, error) {
	return a.verdict, nil
}

func startValidator(t *testing.T, verdict string) *httptest.Server {
	t.Helper()
	srv, err := a2a.NewServer(&verdictAgent{verdict: verdict}, &a2a.ServerConfig{BaseURL: "http://validator.test"})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decodeToolOutput(t *testing.T, out string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	return m
}

func TestNewRequiresModel(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNewRemoteValidationRequiresURL(t *testing.T) {
	_, err := New(Config{Model: &toolOnceLLM{}, RemoteValidation: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validator URL")
}

func TestCard(t *testing.T) {
	a, err := New(Config{Model: &toolOnceLLM{}})
	require.NoError(t, err)

	card := a.Card()
	assert.Equal(t, AgentName, card.Name)
	require.Len(t, card.Skills, 1)
	assert.Equal(t, "generate_haiku", card.Skills[0].ID)
}

func TestLouderTool(t *testing.T) {
	llm := &toolOnceLLM{callTool: "louder_haiku", args: map[string]any{"text": "old silent pond"}}
	a, err := New(Config{Model: llm})
	require.NoError(t, err)

	out, err := a.Execute(context.Background(), "say it louder")
	require.NoError(t, err)
	assert.Equal(t, "OLD SILENT POND", out)
}

func TestEmbeddedValidation(t *testing.T) {
	llm := &validatorBackedLLM{
		toolOnceLLM: toolOnceLLM{callTool: "validate_haiku", args: map[string]any{"haiku": "old pond"}},
		verdict:     `{"is_valid": true, "score": 85, "feedback": "classic"}`,
	}
	a, err := New(Config{Model: llm})
	require.NoError(t, err)

	out, err := a.Execute(context.Background(), "validate my haiku")
	require.NoError(t, err)

	result := decodeToolOutput(t, out)
	assert.Equal(t, "success", result["status"])
	verdict := result["validation_result"].(map[string]any)
	assert.Equal(t, true, verdict["is_valid"])
	assert.Equal(t, float64(85), verdict["score"])
}

func TestEmbeddedValidationBadVerdict(t *testing.T) {
	llm := &validatorBackedLLM{
		toolOnceLLM: toolOnceLLM{callTool: "validate_haiku", args: map[string]any{"haiku": "old pond"}},
		verdict:     "I think it is lovely.",
	}
	a, err := New(Config{Model: llm})
	require.NoError(t, err)

	out, err := a.Execute(context.Background(), "validate my haiku")
	require.NoError(t, err)

	result := decodeToolOutput(t, out)
	assert.Equal(t, "error", result["status"])
	assert.Contains(t, result["message"], "Failed to parse JSON")
	assert.Equal(t, "I think it is lovely.", result["raw_response"])
}

func TestRemoteValidation(t *testing.T) {
	ts := startValidator(t, "```json\n{\"is_valid\": true, \"score\": 92, \"feedback\": \"strong imagery\"}\n```")

	llm := &toolOnceLLM{callTool: "validate_haiku", args: map[string]any{"haiku": "an old silent pond"}}
	a, err := New(Config{Model: llm, RemoteValidation: true, ValidatorURL: ts.URL})
	require.NoError(t, err)

	out, err := a.Execute(context.Background(), "validate my haiku")
	require.NoError(t, err)

	result := decodeToolOutput(t, out)
	assert.Equal(t, "success", result["status"])
	verdict := result["validation_result"].(map[string]any)
	assert.Equal(t, float64(92), verdict["score"])
}

func TestRemoteValidationUnreachable(t *testing.T) {
	llm := &toolOnceLLM{callTool: "validate_haiku", args: map[string]any{"haiku": "old pond"}}
	a, err := New(Config{Model: llm, RemoteValidation: true, ValidatorURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	out, err := a.Execute(context.Background(), "validate my haiku")
	require.NoError(t, err)

	result := decodeToolOutput(t, out)
	assert.Equal(t, "error", result["status"])
}

func TestRemoteValidationBadVerdict(t *testing.T) {
	ts := startValidator(t, "no json here")

	llm := &toolOnceLLM{callTool: "validate_haiku", args: map[string]any{"haiku": "old pond"}}
	a, err := New(Config{Model: llm, RemoteValidation: true, ValidatorURL: ts.URL})
	require.NoError(t, err)

	out, err := a.Execute(context.Background(), "validate my haiku")
	require.NoError(t, err)

	result := decodeToolOutput(t, out)
	assert.Equal(t, "error", result["status"])
	assert.Contains(t, result["message"], "Failed to parse JSON")
	assert.Equal(t, "no json here", result["raw_response"])
}
