package middleware

import (
	"net/http"
	"time"

	"eventx/internal/metrics"
)

// Metrics records request count and latency per matched route pattern.
// Requests that matched no route are recorded under "unmatched".
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := recordStatus(w)
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(route, r.Method, rec.status, time.Since(start))
	})
}
