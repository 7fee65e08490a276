package middleware

import (
	"net/http"
	"time"

	"gatecontrol-hq/gatecontrol/pkg/telemetry/metrics"

	"github.com/go-chi/chi/v5"
)

// Metrics records request count and latency labelled by route pattern.
// Requests that matched no route are labelled "unmatched".
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			collector.RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}
