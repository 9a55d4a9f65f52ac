// Package observability provides Prometheus-backed metrics for agent,
// LLM, and tool activity, via the OpenTelemetry metric API.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var (
	globalMetrics Metrics = NoopMetrics{}
	metricsMu     sync.RWMutex
)

// Metrics records the mesh's operational signals. Implementations must
// tolerate nil-safe calls from hot paths.
type Metrics interface {
	RecordAgentCall(ctx context.Context, agent string, duration time.Duration, err error)
	RecordLLMCall(ctx context.Context, model string, duration time.Duration, inputTokens, outputTokens int, err error)
	RecordToolExecution(ctx context.Context, tool string, duration time.Duration, err error)

	// Handler serves the scrape endpoint.
	Handler() http.Handler
}

// PrometheusMetrics implements Metrics on an OTel meter backed by a
// Prometheus exporter.
type PrometheusMetrics struct {
	agentDuration metric.Float64Histogram
	agentCalls    metric.Int64Counter
	agentErrors   metric.Int64Counter

	llmDuration     metric.Float64Histogram
	llmInputTokens  metric.Int64Counter
	llmOutputTokens metric.Int64Counter
	llmErrors       metric.Int64Counter

	toolDuration metric.Float64Histogram
	toolCalls    metric.Int64Counter
	toolErrors   metric.Int64Counter
}

// InitMetrics creates Prometheus-backed metrics and registers them as
// the process-global recorder.
func InitMetrics() (*PrometheusMetrics, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("haikumesh")

	m := &PrometheusMetrics{}

	if m.agentDuration, err = meter.Float64Histogram(
		"haikumesh_agent_call_duration_seconds",
		metric.WithDescription("Agent call duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent duration histogram: %w", err)
	}
	if m.agentCalls, err = meter.Int64Counter(
		"haikumesh_agent_calls_total",
		metric.WithDescription("Total agent calls"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent calls counter: %w", err)
	}
	if m.agentErrors, err = meter.Int64Counter(
		"haikumesh_agent_errors_total",
		metric.WithDescription("Total agent errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent errors counter: %w", err)
	}

	if m.llmDuration, err = meter.Float64Histogram(
		"haikumesh_llm_request_duration_seconds",
		metric.WithDescription("LLM request duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm duration histogram: %w", err)
	}
	if m.llmInputTokens, err = meter.Int64Counter(
		"haikumesh_llm_tokens_input_total",
		metric.WithDescription("Total input tokens sent to the model"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm input tokens counter: %w", err)
	}
	if m.llmOutputTokens, err = meter.Int64Counter(
		"haikumesh_llm_tokens_output_total",
		metric.WithDescription("Total output tokens from the model"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm output tokens counter: %w", err)
	}
	if m.llmErrors, err = meter.Int64Counter(
		"haikumesh_llm_errors_total",
		metric.WithDescription("Total model errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm errors counter: %w", err)
	}

	if m.toolDuration, err = meter.Float64Histogram(
		"haikumesh_tool_execution_duration_seconds",
		metric.WithDescription("Tool execution duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}
	if m.toolCalls, err = meter.Int64Counter(
		"haikumesh_tool_calls_total",
		metric.WithDescription("Total tool calls"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}
	if m.toolErrors, err = meter.Int64Counter(
		"haikumesh_tool_errors_total",
		metric.WithDescription("Total tool errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool errors counter: %w", err)
	}

	SetGlobalMetrics(m)
	return m, nil
}

func (m *PrometheusMetrics) RecordAgentCall(ctx context.Context, agent string, duration time.Duration, err error) {
	if m == nil || m.agentDuration == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("agent", agent))
	m.agentDuration.Record(ctx, duration.Seconds(), attrs)
	m.agentCalls.Add(ctx, 1, attrs)
	if err != nil {
		m.agentErrors.Add(ctx, 1, attrs)
	}
}

func (m *PrometheusMetrics) RecordLLMCall(ctx context.Context, model string, duration time.Duration, inputTokens, outputTokens int, err error) {
	if m == nil || m.llmDuration == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("model", model))
	m.llmDuration.Record(ctx, duration.Seconds(), attrs)
	m.llmInputTokens.Add(ctx, int64(inputTokens), attrs)
	m.llmOutputTokens.Add(ctx, int64(outputTokens), attrs)
	if err != nil {
		m.llmErrors.Add(ctx, 1, attrs)
	}
}

func (m *PrometheusMetrics) RecordToolExecution(ctx context.Context, tool string, duration time.Duration, err error) {
	if m == nil || m.toolDuration == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("tool", tool))
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
	m.toolCalls.Add(ctx, 1, attrs)
	if err != nil {
		m.toolErrors.Add(ctx, 1, attrs)
	}
}

// Handler serves the Prometheus scrape endpoint.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.Handler()
}

// SetGlobalMetrics replaces the process-global recorder.
func SetGlobalMetrics(m Metrics) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	globalMetrics = m
}

// GetGlobalMetrics returns the process-global recorder, never nil.
func GetGlobalMetrics() Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return globalMetrics
}
