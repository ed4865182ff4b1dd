package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventx/internal/domain"
)

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		exposeInternal bool
		wantStatus     int
		wantCode       string
		wantMessage    string
		wantBookingID  string
	}{
		{
			name:          "duplicate user booking carries booking id",
			err:           fmt.Errorf("create booking: %w", &domain.DuplicateBookingError{Err: domain.ErrDuplicateUserBooking, BookingID: "BKX1"}),
			wantStatus:    http.StatusConflict,
			wantCode:      ErrCodeDuplicateUserBooking,
			wantBookingID: "BKX1",
		},
		{
			name:       "duplicate roll booking",
			err:        &domain.DuplicateBookingError{Err: domain.ErrDuplicateRollBooking},
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeDuplicateRollBooking,
		},
		{name: "event not found", err: domain.ErrEventNotFound, wantStatus: http.StatusNotFound, wantCode: ErrCodeEventNotFound},
		{name: "invalid signature", err: domain.ErrInvalidSignature, wantStatus: http.StatusBadRequest, wantCode: ErrCodeInvalidSignature},
		{name: "gateway", err: fmt.Errorf("create order: %w", domain.ErrGateway), wantStatus: http.StatusBadGateway, wantCode: ErrCodeGatewayError},
		{name: "validation", err: fmt.Errorf("%w: title is required", domain.ErrInvalidInput), wantStatus: http.StatusBadRequest, wantCode: ErrCodeBadRequest, wantMessage: "invalid input: title is required"},
		{name: "internal hidden", err: errors.New("pq: connection refused"), wantStatus: http.StatusInternalServerError, wantCode: ErrCodeInternalError, wantMessage: "internal server error"},
		{name: "internal exposed", err: errors.New("pq: connection refused"), exposeInternal: true, wantStatus: http.StatusInternalServerError, wantCode: ErrCodeInternalError, wantMessage: "pq: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteDomainError(rr, tt.err, tt.exposeInternal)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			var envelope APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			require.NotNil(t, envelope.Error)
			assert.Nil(t, envelope.Data)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
			assert.Equal(t, tt.wantBookingID, envelope.Error.BookingID)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, envelope.Error.Message)
			}
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	assert.Equal(t, PaginationMeta{CurrentPage: 2, Limit: 20, Total: 41, TotalPages: 3},
		NewPaginationMeta(domain.PaginationParams{Page: 2, PageSize: 20}, 41))
	assert.Equal(t, 0, NewPaginationMeta(domain.PaginationParams{Page: 1}, 5).TotalPages)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  domain.PaginationParams
	}{
		{"", domain.PaginationParams{Page: 1, PageSize: domain.DefaultPageSize}},
		{"page=3&limit=500", domain.PaginationParams{Page: 3, PageSize: domain.MaxPageSize}},
		{"page=-1&limit=x", domain.PaginationParams{Page: 1, PageSize: domain.DefaultPageSize}},
		{"page=2&limit=25", domain.PaginationParams{Page: 2, PageSize: 25}},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/bookings/event/e1?"+tt.query, nil)
		assert.Equal(t, tt.want, ParsePagination(r), tt.query)
	}
}
