package observability

import (
	"context"
	"net/http"
	"time"
)

// NoopMetrics discards everything. It is the default recorder so callers
// never need a nil check.
type NoopMetrics struct{}

func (NoopMetrics) RecordAgentCall(_ context.Context, _ string, _ time.Duration, _ error) {}

func (NoopMetrics) RecordLLMCall(_ context.Context, _ string, _ time.Duration, _, _ int, _ error) {}

func (NoopMetrics) RecordToolExecution(_ context.Context, _ string, _ time.Duration, _ error) {}

// Handler answers 503 so scrapes make the disabled state visible.
func (NoopMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("metrics not enabled"))
	})
}

var (
	_ Metrics = (*PrometheusMetrics)(nil)
	_ Metrics = NoopMetrics{}
)
