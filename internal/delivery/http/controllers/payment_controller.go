package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventx/internal/delivery/http/helpers"
	"eventx/internal/delivery/http/middleware"
	"eventx/internal/domain"
)

// CreateOrderRequest is the request body for POST /payments/order/{eventId}.
type CreateOrderRequest struct {
	BookingData BookingForm `json:"bookingData"`
}

// Validate implements helpers.Validator.
func (c *CreateOrderRequest) Validate() []string {
	return c.BookingData.Validate()
}

// CreateOrderResponse is returned by POST /payments/order/{eventId}. When
// paymentRequired is false the event was free and booking is set.
type CreateOrderResponse struct {
	PaymentRequired bool            `json:"paymentRequired"`
	OrderID         string          `json:"orderId,omitempty"`
	Amount          int64           `json:"amount,omitempty"`
	Currency        string          `json:"currency,omitempty"`
	PublishableKey  string          `json:"publishableKey,omitempty"`
	EventTitle      string          `json:"eventTitle"`
	EventPrice      string          `json:"eventPrice"`
	Booking         *BookingSummary `json:"booking,omitempty"`
}

// VerifyPaymentRequest is the request body for POST /payments/verify/{eventId}.
type VerifyPaymentRequest struct {
	OrderID     string      `json:"razorpay_order_id"`
	PaymentID   string      `json:"razorpay_payment_id"`
	Signature   string      `json:"razorpay_signature"`
	BookingData BookingForm `json:"bookingData"`
}

// Validate implements helpers.Validator.
func (v *VerifyPaymentRequest) Validate() []string {
	v.OrderID = strings.TrimSpace(v.OrderID)
	v.PaymentID = strings.TrimSpace(v.PaymentID)
	v.Signature = strings.TrimSpace(v.Signature)

	var errs []string
	if v.OrderID == "" {
		errs = append(errs, "razorpay_order_id is required")
	}
	if v.PaymentID == "" {
		errs = append(errs, "razorpay_payment_id is required")
	}
	if v.Signature == "" {
		errs = append(errs, "razorpay_signature is required")
	}
	return append(errs, v.BookingData.Validate()...)
}

type PaymentController struct {
	Logger         *slog.Logger
	Service        domain.PaymentService
	ExposeInternal bool
}

func NewPaymentController(logger *slog.Logger, svc domain.PaymentService, exposeInternal bool) *PaymentController {
	return &PaymentController{
		Logger:         logger,
		Service:        svc,
		ExposeInternal: exposeInternal,
	}
}

// CreateOrder godoc
// @Summary Create a payment order
// @Description Creates a gateway order for a priced event. Nothing is booked until the payment is verified. For a free event the booking is made immediately and paymentRequired is false.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param body body controllers.CreateOrderRequest true "Booking form data"
// @Success 200 {object} helpers.APIResponse "data contains orderId, amount, currency, publishableKey"
// @Success 201 {object} helpers.APIResponse "free event: data.booking contains the confirmed booking"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or INVALID_AMOUNT"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: EVENT_NOT_FOUND"
// @Failure 409 {object} helpers.APIResponse "error.code: DUPLICATE_USER_BOOKING or DUPLICATE_ROLL_BOOKING"
// @Failure 502 {object} helpers.APIResponse "error.code: GATEWAY_ERROR"
// @Router /payments/order/{eventId} [post]
func (c *PaymentController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventId")
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CreateOrderRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := c.Service.CreateOrder(r.Context(), eventID, caller, req.BookingData.details())
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}

	resp := CreateOrderResponse{
		PaymentRequired: result.PaymentRequired,
		OrderID:         result.OrderID,
		Amount:          result.Amount,
		Currency:        result.Currency,
		PublishableKey:  result.PublishableKey,
		EventTitle:      result.EventTitle,
		EventPrice:      result.EventPrice.StringFixed(2),
	}
	if !result.PaymentRequired {
		summary := newBookingSummary(result.Booking, nil)
		summary.EventTitle = result.EventTitle
		resp.Booking = &summary
		helpers.WriteJSONSuccess(w, http.StatusCreated, resp)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, resp)
}

// VerifyPayment godoc
// @Summary Verify a payment and finalize the booking
// @Description Checks the gateway signature, confirms with the gateway that the payment was captured for this order, and only then writes a confirmed, paid booking. Replaying a verified payment answers 409.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param body body controllers.VerifyPaymentRequest true "Gateway references and booking form data"
// @Success 201 {object} controllers.BookingSummarySuccessResponse "data contains the finalized booking summary"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, INVALID_SIGNATURE, PAYMENT_NOT_CAPTURED or ORDER_MISMATCH"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: EVENT_NOT_FOUND"
// @Failure 409 {object} helpers.APIResponse "error.code: DUPLICATE_USER_BOOKING or DUPLICATE_ROLL_BOOKING"
// @Failure 502 {object} helpers.APIResponse "error.code: GATEWAY_ERROR"
// @Router /payments/verify/{eventId} [post]
func (c *PaymentController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventId")
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req VerifyPaymentRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	booking, event, err := c.Service.VerifyPayment(r.Context(), eventID, caller, &domain.VerifyPaymentInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Details:   req.BookingData.details(),
	})
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, newBookingSummary(booking, event))
}
