package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventx/internal/domain"
)

// capturingHandler records the last log record for assertions.
type capturingHandler struct {
	record slog.Record
}

func (h *capturingHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *capturingHandler) Handle(_ context.Context, r slog.Record) error {
	h.record = r.Clone()
	return nil
}

func (h *capturingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h *capturingHandler) WithGroup(_ string) slog.Handler { return h }

func (h *capturingHandler) attrs() map[string]slog.Value {
	out := make(map[string]slog.Value)
	h.record.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value
		return true
	})
	return out
}

type identityVerifier struct{ id domain.Identity }

func (v identityVerifier) Verify(string) (domain.Identity, error) { return v.id, nil }

func TestLoggingMiddleware(t *testing.T) {
	var records capturingHandler
	logger := slog.New(&records)
	student := domain.Identity{UserID: "u-42", Role: domain.RoleUser}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	mux.HandleFunc("POST /bookings/event/{eventId}", RequireAuth(identityVerifier{id: student}, logger)(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.PathValue("eventId") {
			case "dup":
				w.WriteHeader(http.StatusConflict)
			case "boom":
				w.WriteHeader(http.StatusInternalServerError)
			default:
				w.WriteHeader(http.StatusCreated)
			}
		}))
	handler := LoggingMiddleware(logger, mux)

	tests := []struct {
		name      string
		method    string
		path      string
		auth      bool
		wantCode  int
		wantLevel slog.Level
		wantRoute string
		wantUser  string
	}{
		{"public read", http.MethodGet, "/events", false, http.StatusOK, slog.LevelInfo, "GET /events", ""},
		{"booking created", http.MethodPost, "/bookings/event/ev1", true, http.StatusCreated, slog.LevelInfo, "POST /bookings/event/{eventId}", "u-42"},
		{"duplicate booking", http.MethodPost, "/bookings/event/dup", true, http.StatusConflict, slog.LevelWarn, "POST /bookings/event/{eventId}", "u-42"},
		{"missing token", http.MethodPost, "/bookings/event/ev1", false, http.StatusUnauthorized, slog.LevelWarn, "POST /bookings/event/{eventId}", ""},
		{"server error", http.MethodPost, "/bookings/event/boom", true, http.StatusInternalServerError, slog.LevelError, "POST /bookings/event/{eventId}", "u-42"},
		{"no route", http.MethodGet, "/nowhere", false, http.StatusNotFound, slog.LevelWarn, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://test"+tt.path, nil)
			if tt.auth {
				req.Header.Set("Authorization", "Bearer t")
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			require.Equal(t, tt.wantCode, rr.Code)
			require.Equal(t, "request", records.record.Message)
			assert.Equal(t, tt.wantLevel, records.record.Level)

			attrs := records.attrs()
			assert.Equal(t, tt.method, attrs["method"].String())
			assert.Equal(t, tt.path, attrs["path"].String())
			assert.Equal(t, int64(tt.wantCode), attrs["status"].Int64())
			assert.GreaterOrEqual(t, attrs["duration_ms"].Int64(), int64(0))
			if tt.wantRoute == "" {
				assert.NotContains(t, attrs, "route")
			} else {
				assert.Equal(t, tt.wantRoute, attrs["route"].String())
			}
			if tt.wantUser == "" {
				assert.NotContains(t, attrs, "user_id")
			} else {
				assert.Equal(t, tt.wantUser, attrs["user_id"].String())
			}
		})
	}
}

func TestLoggingMiddleware_countsBytes(t *testing.T) {
	var records capturingHandler
	handler := LoggingMiddleware(slog.New(&records), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, int64(5), records.attrs()["bytes"].Int64())
}

func TestRecordStatus_sharedAcrossMiddleware(t *testing.T) {
	outer := recordStatus(httptest.NewRecorder())
	assert.Same(t, outer, recordStatus(outer))

	var seen http.ResponseWriter
	var records capturingHandler
	handler := LoggingMiddleware(slog.New(&records), Metrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		seen = w
		w.WriteHeader(http.StatusAccepted)
	})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec, ok := seen.(*statusRecorder)
	require.True(t, ok)
	_, nested := rec.ResponseWriter.(*statusRecorder)
	assert.False(t, nested)
	assert.Equal(t, int64(http.StatusAccepted), records.attrs()["status"].Int64())
}
