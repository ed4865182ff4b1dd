package controllers

import (
	"log/slog"
	"net/http"

	"eventx/internal/delivery/http/helpers"
)

// respondError logs server-side failures and writes the mapped error envelope.
func respondError(logger *slog.Logger, exposeInternal bool, w http.ResponseWriter, r *http.Request, err error) {
	if status, _ := helpers.ErrorStatus(err); status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteDomainError(w, err, exposeInternal)
}
