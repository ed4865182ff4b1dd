package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "eventx/internal/delivery/http/helpers"
	"eventx/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// SetIdentity returns a context carrying the authenticated caller. Used by auth middleware.
func SetIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the authenticated caller from the context, if present.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	if !ok || id.UserID == "" {
		return domain.Identity{}, false
	}
	return id, true
}

// RequireAuth returns a wrapper that validates the Bearer token and sets the caller identity in the request context.
// If the token is missing or invalid, it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing token")
				return
			}
			id, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			noteCaller(r.Context(), id.UserID)
			next(w, r.WithContext(SetIdentity(r.Context(), id)))
		}
	}
}

// RequireClubAdmin runs after RequireAuth and answers 403 unless the caller administers a club.
func RequireClubAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
			return
		}
		if !id.IsClubAdmin() {
			h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "club admin access required")
			return
		}
		next(w, r)
	}
}
