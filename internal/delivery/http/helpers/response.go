package helpers

import (
	"encoding/json"
	"errors"
	"net/http"

	"eventx/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeForbidden     = "forbidden"
	ErrCodeNotFound      = "not_found"
	ErrCodeInternalError = "internal_error"

	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeEventNotFound        = "EVENT_NOT_FOUND"
	ErrCodeBookingNotFound      = "BOOKING_NOT_FOUND"
	ErrCodeDuplicateUserBooking = "DUPLICATE_USER_BOOKING"
	ErrCodeDuplicateRollBooking = "DUPLICATE_ROLL_BOOKING"
	ErrCodeBookingIDExhausted   = "BOOKING_ID_EXHAUSTED"
	ErrCodePaymentRequired      = "PAYMENT_REQUIRED"
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeInvalidSignature     = "INVALID_SIGNATURE"
	ErrCodePaymentNotCaptured   = "PAYMENT_NOT_CAPTURED"
	ErrCodeOrderMismatch        = "ORDER_MISMATCH"
	ErrCodeGatewayError         = "GATEWAY_ERROR"
	ErrCodeDuplicateEventTitle  = "DUPLICATE_EVENT_TITLE"
	ErrCodeUploadInProgress     = "UPLOAD_IN_PROGRESS"
)

// APIError is the error object in the standardized API response envelope.
// BookingID is set on DUPLICATE_USER_BOOKING when the earlier booking is known.
// swagger:model APIError
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	BookingID string `json:"bookingId,omitempty"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data, Error: nil})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeAPIError(w, statusCode, &APIError{Code: code, Message: message})
}

func writeAPIError(w http.ResponseWriter, statusCode int, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: nil, Error: apiErr})
}

type errorMapping struct {
	target error
	status int
	code   string
}

// First match wins; more specific sentinels come before generic ones.
var errorMappings = []errorMapping{
	{domain.ErrDuplicateUserBooking, http.StatusConflict, ErrCodeDuplicateUserBooking},
	{domain.ErrDuplicateRollBooking, http.StatusConflict, ErrCodeDuplicateRollBooking},
	{domain.ErrBookingIDExhausted, http.StatusConflict, ErrCodeBookingIDExhausted},
	{domain.ErrUploadInProgress, http.StatusConflict, ErrCodeUploadInProgress},
	{domain.ErrDuplicateEventTitle, http.StatusConflict, ErrCodeDuplicateEventTitle},
	{domain.ErrEventNotFound, http.StatusNotFound, ErrCodeEventNotFound},
	{domain.ErrBookingNotFound, http.StatusNotFound, ErrCodeBookingNotFound},
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeInvalidCredentials},
	{domain.ErrUnauthorized, http.StatusUnauthorized, ErrCodeUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
	{domain.ErrPaymentRequired, http.StatusBadRequest, ErrCodePaymentRequired},
	{domain.ErrInvalidAmount, http.StatusBadRequest, ErrCodeInvalidAmount},
	{domain.ErrInvalidSignature, http.StatusBadRequest, ErrCodeInvalidSignature},
	{domain.ErrPaymentNotCaptured, http.StatusBadRequest, ErrCodePaymentNotCaptured},
	{domain.ErrOrderMismatch, http.StatusBadRequest, ErrCodeOrderMismatch},
	{domain.ErrGateway, http.StatusBadGateway, ErrCodeGatewayError},
	{domain.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest},
}

// ErrorStatus returns the HTTP status and error code for err. Unknown errors
// are 500 internal_error.
func ErrorStatus(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// WriteDomainError writes err using ErrorStatus. Internal error messages are
// replaced with a generic text unless exposeInternal is set.
func WriteDomainError(w http.ResponseWriter, err error, exposeInternal bool) {
	status, code := ErrorStatus(err)
	apiErr := &APIError{Code: code, Message: err.Error()}
	if status == http.StatusInternalServerError && !exposeInternal {
		apiErr.Message = "internal server error"
	}
	var dup *domain.DuplicateBookingError
	if errors.As(err, &dup) {
		apiErr.BookingID = dup.BookingID
	}
	writeAPIError(w, status, apiErr)
}
