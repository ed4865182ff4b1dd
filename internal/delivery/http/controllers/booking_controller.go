package controllers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"eventx/internal/delivery/http/helpers"
	"eventx/internal/delivery/http/middleware"
	"eventx/internal/domain"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// BookingSummary is returned when a booking is created or finalized.
type BookingSummary struct {
	BookingID     string               `json:"bookingId"`
	EventTitle    string               `json:"eventTitle"`
	Status        domain.BookingStatus `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	Amount        int64                `json:"amount,omitempty"`
	PaymentID     string               `json:"paymentId,omitempty"`
}

func newBookingSummary(b *domain.Booking, e *domain.Event) BookingSummary {
	s := BookingSummary{
		BookingID:     b.BookingID,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
	}
	if e != nil {
		s.EventTitle = e.Title
	}
	if b.Payment != nil {
		s.Amount = b.Payment.Amount
		s.PaymentID = b.Payment.PaymentID
	}
	return s
}

// BookingSummarySuccessResponse is the success envelope for booking creation (201).
type BookingSummarySuccessResponse struct {
	Data  BookingSummary    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEventBookingsResponse is the paginated data for GET /bookings/event/{eventId}.
type ListEventBookingsResponse struct {
	Bookings   []*domain.Booking      `json:"bookings"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

type BookingController struct {
	Logger         *slog.Logger
	Service        domain.BookingService
	Exporter       domain.BookingExporter
	ExposeInternal bool
}

func NewBookingController(logger *slog.Logger, svc domain.BookingService, exporter domain.BookingExporter, exposeInternal bool) *BookingController {
	return &BookingController{
		Logger:         logger,
		Service:        svc,
		Exporter:       exporter,
		ExposeInternal: exposeInternal,
	}
}

// CreateBooking godoc
// @Summary Book a free event
// @Description Creates a confirmed booking for the caller. Priced events must go through the payment endpoints. A repeated booking answers 409 and, for the same user, carries the earlier bookingId.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param body body controllers.BookingForm true "Personal and academic details"
// @Success 201 {object} controllers.BookingSummarySuccessResponse "data contains bookingId, eventTitle, status, paymentStatus"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or PAYMENT_REQUIRED"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: EVENT_NOT_FOUND"
// @Failure 409 {object} helpers.APIResponse "error.code: DUPLICATE_USER_BOOKING or DUPLICATE_ROLL_BOOKING"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/event/{eventId} [post]
func (c *BookingController) CreateBooking(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventId")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventId")
		return
	}
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var form BookingForm
	if !helpers.DecodeAndValidate(w, r, &form) {
		return
	}

	booking, event, err := c.Service.BookFree(r.Context(), eventID, caller, form.details())
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, newBookingSummary(booking, event))
}

// GetBooking godoc
// @Summary Get a booking
// @Description Returns one booking by its human-readable booking id, with the event populated.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param bookingId path string true "Booking ID (BK...)"
// @Success 200 {object} helpers.APIResponse "data contains booking and event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: BOOKING_NOT_FOUND"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/{bookingId} [get]
func (c *BookingController) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := strings.ToUpper(strings.TrimSpace(r.PathValue("bookingId")))
	if bookingID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing bookingId")
		return
	}
	result, err := c.Service.GetBooking(r.Context(), bookingID)
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// ListEventBookings godoc
// @Summary List bookings of an event
// @Description Owner club admin only. Returns a page of bookings, newest first. With export=excel the full booking list is returned as a spreadsheet download instead.
// @Tags bookings
// @Produce json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param export query string false "Set to excel for a spreadsheet download"
// @Success 200 {object} helpers.APIResponse "data contains bookings and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: EVENT_NOT_FOUND"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/event/{eventId} [get]
func (c *BookingController) ListEventBookings(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventId")
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	switch export := r.URL.Query().Get("export"); export {
	case "":
	case "excel":
		c.exportEventBookings(w, r, eventID, caller)
		return
	default:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, fmt.Sprintf("unsupported export format %q", export))
		return
	}

	params := helpers.ParsePagination(r)
	bookings, total, err := c.Service.ListEventBookings(r.Context(), eventID, caller, params)
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventBookingsResponse{
		Bookings:   bookings,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// The workbook is rendered into memory first so a failure can still be
// reported as JSON.
func (c *BookingController) exportEventBookings(w http.ResponseWriter, r *http.Request, eventID string, caller domain.Identity) {
	event, bookings, err := c.Service.EventBookingsForExport(r.Context(), eventID, caller)
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := c.Exporter.Export(&buf, event, bookings); err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, fmt.Errorf("export bookings: %w", err))
		return
	}

	w.Header().Set("Content-Type", c.Exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(event, c.Exporter.FileExtension())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func exportFilename(event *domain.Event, ext string) string {
	name := strings.Trim(unsafeFilenameChars.ReplaceAllString(event.Title, "_"), "_")
	if name == "" {
		name = event.ID
	}
	return name + "_bookings." + ext
}

// ListUserBookings godoc
// @Summary List my bookings
// @Description Returns every booking of the caller, newest first, with events populated.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains bookings with events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/user [get]
func (c *BookingController) ListUserBookings(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	bookings, err := c.Service.ListUserBookings(r.Context(), caller.UserID)
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, bookings)
}

// EventBookingStats godoc
// @Summary Booking statistics of an event
// @Description Owner club admin only. Totals plus breakdowns by college and department.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the statistics"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: EVENT_NOT_FOUND"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/event/{eventId}/stats [get]
func (c *BookingController) EventBookingStats(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	stats, err := c.Service.EventBookingStats(r.Context(), r.PathValue("eventId"), caller)
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}
