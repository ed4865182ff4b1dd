package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"eventx/internal/delivery/http/helpers"
	"eventx/internal/delivery/http/middleware"
	"eventx/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

var (
	student   = domain.Identity{UserID: "u1", Role: domain.RoleUser}
	clubAdmin = domain.Identity{UserID: "admin-1", Role: domain.RoleClubAdmin, ClubID: "club-1"}
)

func withIdentity(r *http.Request, id domain.Identity) *http.Request {
	return r.WithContext(middleware.SetIdentity(r.Context(), id))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) *helpers.APIError {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	if data != nil && envelope.Error == nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return envelope.Error
}

const validBookingJSON = `{"fullName":"Asha Rao","email":"Asha@Example.com","phone":"9876543210","rollNumber":"160122733001",` +
	`"degree":"B.E/B.Tech","college":"CBIT","department":"CSE","section":1,"year":"2"}`

type fakeBookingService struct {
	booking     *domain.Booking
	event       *domain.Event
	err         error
	gotDetails  domain.BookingDetails
	gotCaller   domain.Identity
	gotParams   domain.PaginationParams
	list        []*domain.Booking
	total       int
	withEvents  []*domain.BookingWithEvent
	stats       *domain.BookingStats
	exportCalls int
}

func (f *fakeBookingService) BookFree(_ context.Context, _ string, caller domain.Identity, details domain.BookingDetails) (*domain.Booking, *domain.Event, error) {
	f.gotCaller, f.gotDetails = caller, details
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.booking, f.event, nil
}

func (f *fakeBookingService) GetBooking(_ context.Context, bookingID string) (*domain.BookingWithEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.BookingWithEvent{Booking: &domain.Booking{BookingID: bookingID}, Event: f.event}, nil
}

func (f *fakeBookingService) ListEventBookings(_ context.Context, _ string, caller domain.Identity, params domain.PaginationParams) ([]*domain.Booking, int, error) {
	f.gotCaller, f.gotParams = caller, params
	return f.list, f.total, f.err
}

func (f *fakeBookingService) ListUserBookings(_ context.Context, _ string) ([]*domain.BookingWithEvent, error) {
	return f.withEvents, f.err
}

func (f *fakeBookingService) EventBookingStats(_ context.Context, _ string, caller domain.Identity) (*domain.BookingStats, error) {
	f.gotCaller = caller
	return f.stats, f.err
}

func (f *fakeBookingService) EventBookingsForExport(_ context.Context, _ string, caller domain.Identity) (*domain.Event, []*domain.Booking, error) {
	f.gotCaller = caller
	f.exportCalls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.event, f.list, nil
}

type fakeExporter struct {
	err error
}

func (fakeExporter) ContentType() string   { return "application/test-sheet" }
func (fakeExporter) FileExtension() string { return "xlsx" }

func (f fakeExporter) Export(w io.Writer, _ *domain.Event, bookings []*domain.Booking) error {
	if f.err != nil {
		return f.err
	}
	for _, b := range bookings {
		_, _ = io.WriteString(w, b.BookingID+"\n")
	}
	return nil
}

type fakePaymentService struct {
	order      *domain.OrderResult
	booking    *domain.Booking
	event      *domain.Event
	err        error
	gotInput   *domain.VerifyPaymentInput
	gotDetails domain.BookingDetails
}

func (f *fakePaymentService) CreateOrder(_ context.Context, _ string, _ domain.Identity, details domain.BookingDetails) (*domain.OrderResult, error) {
	f.gotDetails = details
	return f.order, f.err
}

func (f *fakePaymentService) VerifyPayment(_ context.Context, _ string, _ domain.Identity, in *domain.VerifyPaymentInput) (*domain.Booking, *domain.Event, error) {
	f.gotInput = in
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.booking, f.event, nil
}
