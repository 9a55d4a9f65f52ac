package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/haikumesh/haikumesh/pkg/logger"
)

// DefaultExtendedCardToken is the placeholder bearer credential for the
// extended card endpoint. The demo trust model accepts any non-empty
// token; real deployments replace this with a verifier.
const DefaultExtendedCardToken = "dummy-token-for-extended-card"

// CardResolver discovers agent cards, preferring the authenticated
// extended card when the public card advertises one.
type CardResolver struct {
	httpClient *http.Client
	token      string
	logger     *slog.Logger
}

// ResolverOption configures a CardResolver.
type ResolverOption func(*CardResolver)

// WithResolverHTTPClient sets the HTTP client used for card fetches.
func WithResolverHTTPClient(client *http.Client) ResolverOption {
	return func(r *CardResolver) {
		r.httpClient = client
	}
}

// WithExtendedCardToken sets the bearer token presented to the extended
// card endpoint.
func WithExtendedCardToken(token string) ResolverOption {
	return func(r *CardResolver) {
		r.token = token
	}
}

// NewCardResolver creates a card resolver.
func NewCardResolver(opts ...ResolverOption) *CardResolver {
	r := &CardResolver{
		httpClient: http.DefaultClient,
		token:      DefaultExtendedCardToken,
		logger:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches the agent card for the agent at baseURL.
//
// The public card at the well-known path is mandatory: failure there is
// fatal. If the public card advertises an extended card, Resolve attempts
// it with the bearer token and quietly falls back to the public card on
// any failure.
//
// The returned card's URL is always overwritten with baseURL: cards
// routinely advertise stale or loopback addresses, and the caller's
// address is the one that demonstrably works.
func (r *CardResolver) Resolve(ctx context.Context, baseURL string) (*AgentCard, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, newError(ErrorKindConfig, "agent base URL is empty", nil)
	}

	card, err := r.fetchCard(ctx, baseURL+AgentCardPath, "")
	if err != nil {
		return nil, newError(ErrorKindDiscovery, fmt.Sprintf("failed to resolve agent card from %s", baseURL), err)
	}

	if card.SupportsAuthenticatedExtendedCard {
		extended, err := r.fetchCard(ctx, baseURL+ExtendedCardPath, r.token)
		if err != nil {
			r.logger.Warn("extended card fetch failed, using public card",
				"url", baseURL, "error", err)
		} else {
			card = extended
		}
	}

	card.URL = baseURL
	return card, nil
}

func (r *CardResolver) fetchCard(ctx context.Context, url string, token string) (*AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get agent card: %s - %s", resp.Status, string(body))
	}

	var card AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("failed to decode agent card: %w", err)
	}
	return &card, nil
}
