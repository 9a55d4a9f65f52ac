package observability

import (
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Middleware records every request served by an agent endpoint as an
// agent call on the global recorder. Responses at 500 and above count
// as errors.
func Middleware(agent string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			var err error
			if ww.Status() >= http.StatusInternalServerError {
				err = fmt.Errorf("HTTP %d", ww.Status())
			}
			GetGlobalMetrics().RecordAgentCall(r.Context(), agent, time.Since(start), err)
		})
	}
}
