package domain

import "errors"

// Sentinel errors shared across repositories and services.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")

	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrEventNotFound   = errors.New("event not found")
	ErrBookingNotFound = errors.New("booking not found")

	ErrDuplicateUserBooking = errors.New("you have already booked this event")
	ErrDuplicateRollBooking = errors.New("this roll number has already been used to book this event")
	// ErrBookingIDConflict is returned by the repository when the generated
	// booking id collides with a stored one. Services retry once on it.
	ErrBookingIDConflict  = errors.New("booking id already exists")
	ErrBookingIDExhausted = errors.New("could not allocate a unique booking id")
	ErrIllegalTransition  = errors.New("illegal booking state transition")

	ErrPaymentRequired    = errors.New("event requires payment")
	ErrInvalidAmount      = errors.New("invalid amount for payment")
	ErrInvalidSignature   = errors.New("invalid payment signature")
	ErrPaymentNotCaptured = errors.New("payment not captured")
	ErrOrderMismatch      = errors.New("payment order does not match this booking")
	ErrGateway            = errors.New("payment gateway error")

	ErrDuplicateEventTitle = errors.New("you already have an event with this title")
	ErrUploadInProgress    = errors.New("this event is already being created")
)

// DuplicateBookingError reports a rejected booking attempt. Err is either
// ErrDuplicateUserBooking or ErrDuplicateRollBooking; BookingID is the
// previously issued booking id when it is known.
type DuplicateBookingError struct {
	Err       error
	BookingID string
}

func (e *DuplicateBookingError) Error() string { return e.Err.Error() }

func (e *DuplicateBookingError) Unwrap() error { return e.Err }

// ErrorKind is the coarse error taxonomy exposed to API clients.
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindDuplicate    ErrorKind = "DUPLICATE"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindPayment      ErrorKind = "PAYMENT"
	KindInternal     ErrorKind = "INTERNAL"
)

// Classify maps err onto the error taxonomy. Unknown errors are INTERNAL.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPaymentRequired), errors.Is(err, ErrDuplicateEventTitle):
		return KindValidation
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEventNotFound), errors.Is(err, ErrBookingNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateUserBooking), errors.Is(err, ErrDuplicateRollBooking),
		errors.Is(err, ErrBookingIDExhausted), errors.Is(err, ErrUploadInProgress):
		return KindDuplicate
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrPaymentNotCaptured), errors.Is(err, ErrOrderMismatch), errors.Is(err, ErrGateway):
		return KindPayment
	default:
		return KindInternal
	}
}
