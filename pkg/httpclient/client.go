// Package httpclient provides an HTTP client with bounded retries for
// transient upstream failures. Retry-After headers are honored when
// present; otherwise delays back off exponentially.
package httpclient

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/haikumesh/haikumesh/pkg/logger"
)

// Client wraps http.Client with retry behavior for 429 and 5xx responses.
type Client struct {
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithMaxRetries sets the retry budget per request.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		c.maxRetries = max
	}
}

// WithBaseDelay sets the first backoff delay.
func WithBaseDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = delay
	}
}

// New creates a retrying HTTP client.
func New(opts ...Option) *Client {
	c := &Client{
		client:     &http.Client{Timeout: 60 * time.Second},
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		logger:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryable reports whether a status code is worth another attempt.
func retryable(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Do executes req, retrying transient failures. The request body must be
// replayable (GetBody set) for retries to re-send it; http.NewRequest
// arranges that for the common body types.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("failed to recreate request body for retry: %w", err)
				}
				req.Body = body
			}

			delay := c.delayFor(attempt, lastResp)
			c.logger.Warn("retrying request",
				"url", req.URL.String(), "attempt", attempt, "delay", delay)

			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// Transport errors are not retried: the peer may have
			// executed the request.
			return nil, err
		}

		if !retryable(resp.StatusCode) {
			return resp, nil
		}

		lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
		lastResp = resp
		resp.Body.Close()
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// delayFor computes the backoff before the given attempt, preferring the
// server's Retry-After when one was sent.
func (c *Client) delayFor(attempt int, lastResp *http.Response) time.Duration {
	if lastResp != nil {
		if after := lastResp.Header.Get("Retry-After"); after != "" {
			if secs, err := strconv.Atoi(after); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return c.baseDelay << (attempt - 1)
}
