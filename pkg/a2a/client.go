package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/haikumesh/haikumesh/pkg/logger"
)

// DefaultTimeout bounds a single message/send round trip, card
// resolution included.
const DefaultTimeout = 10 * time.Second

// Client is an A2A JSON-RPC client. It performs exactly one attempt per
// call; retry policy belongs to the caller.
type Client struct {
	httpClient *http.Client
	resolver   *CardResolver
	logger     *slog.Logger
}

// ClientConfig configures the A2A client.
type ClientConfig struct {
	// Timeout bounds each HTTP request. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport. Its own timeout wins when set.
	HTTPClient *http.Client

	// ExtendedCardToken is the bearer token for extended card fetches.
	// Empty means DefaultExtendedCardToken.
	ExtendedCardToken string
}

// NewClient creates a new A2A client.
func NewClient(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	token := cfg.ExtendedCardToken
	if token == "" {
		token = DefaultExtendedCardToken
	}

	return &Client{
		httpClient: httpClient,
		resolver: NewCardResolver(
			WithResolverHTTPClient(httpClient),
			WithExtendedCardToken(token),
		),
		logger: logger.GetLogger(),
	}
}

// ResolveCard discovers the card for the agent at baseURL.
func (c *Client) ResolveCard(ctx context.Context, baseURL string) (*AgentCard, error) {
	return c.resolver.Resolve(ctx, baseURL)
}

// Send sends text to the agent behind card and returns the raw JSON-RPC
// response envelope. Errors are classified: transport failures are
// ErrorKindNetwork, undecodable responses are ErrorKindProtocol.
func (c *Client) Send(ctx context.Context, card *AgentCard, text string) (*SendMessageResponse, error) {
	if card == nil || card.URL == "" {
		return nil, newError(ErrorKindConfig, "agent card has no URL", nil)
	}

	rpcReq := SendMessageRequest{
		JSONRPC: JSONRPCVersion,
		ID:      uuid.New().String(),
		Method:  MethodMessageSend,
		Params: MessageSendParams{
			Message: Message{
				Role:      MessageRoleUser,
				Parts:     []Part{TextPart(text)},
				MessageID: uuid.New().String(),
			},
			Configuration: &SendConfiguration{
				AcceptedOutputModes: []string{"text"},
				HistoryLength:       0,
			},
		},
	}

	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, newError(ErrorKindProtocol, "failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, card.URL, bytes.NewReader(body))
	if err != nil {
		return nil, newError(ErrorKindConfig, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, newError(ErrorKindNetwork, fmt.Sprintf("network error calling agent %s", card.Name), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, newError(ErrorKindProtocol,
			fmt.Sprintf("agent %s returned %s: %s", card.Name, resp.Status, string(respBody)), nil)
	}

	var envelope SendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, newError(ErrorKindProtocol, "failed to decode agent response", err)
	}

	return &envelope, nil
}

// Call sends text to the agent at baseURL and normalizes whatever comes
// back. It never returns a Go error: every failure mode collapses into
// an error-status CallResult so callers have a single shape to handle.
func (c *Client) Call(ctx context.Context, baseURL string, text string) *CallResult {
	card, err := c.resolver.Resolve(ctx, baseURL)
	if err != nil {
		c.logger.Error("agent discovery failed", "url", baseURL, "error", err)
		return ErrorResult(err.Error())
	}

	start := time.Now()
	envelope, err := c.Send(ctx, card, text)
	if err != nil {
		c.logger.Error("agent call failed",
			"agent", card.Name, "kind", KindOf(err), "error", err)
		return ErrorResult(err.Error())
	}

	result := Unwrap(envelope, card.Name)
	c.logger.Debug("agent call completed",
		"agent", card.Name, "status", result.Status, "duration", time.Since(start))
	return result
}
