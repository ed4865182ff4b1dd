package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// LoggingMiddleware logs one line per request with the matched route, the
// caller's user id when authenticated, status and duration. Client errors are
// logged at Warn and server errors at Error. Bodies are never logged.
func LoggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r, info := withRequestInfo(r)
		rec := recordStatus(w)
		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.written,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if r.Pattern != "" {
			attrs = append(attrs, "route", r.Pattern)
		}
		if info.userID != "" {
			attrs = append(attrs, "user_id", info.userID)
		}

		level := slog.LevelInfo
		switch {
		case rec.status >= http.StatusInternalServerError:
			level = slog.LevelError
		case rec.status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		logger.Log(r.Context(), level, "request", attrs...)
	})
}
