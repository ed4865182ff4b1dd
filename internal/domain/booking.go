package domain

import (
	"context"
	"fmt"
	"io"
	"time"
)

// BookingStatus is the reservation status of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// PaymentStatus is the payment status of a booking.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// BookingState is the (status, payment status) pair. Only the combinations
// listed in legalStates may be persisted.
type BookingState struct {
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

var (
	// StateNew is the state of a booking that has not been written yet.
	StateNew            = BookingState{}
	StateConfirmed      = BookingState{Status: StatusConfirmed, PaymentStatus: PaymentPaid}
	StatePendingPayment = BookingState{Status: StatusPending, PaymentStatus: PaymentPending}
	StateFailed         = BookingState{Status: StatusCancelled, PaymentStatus: PaymentFailed}
)

var legalStates = map[BookingState]struct{}{
	StateConfirmed:      {},
	StatePendingPayment: {},
	StateFailed:         {},
}

// Legal reports whether the state may be stored.
func (s BookingState) Legal() bool {
	_, ok := legalStates[s]
	return ok
}

func (s BookingState) String() string {
	if s == StateNew {
		return "new"
	}
	return string(s.Status) + "/" + string(s.PaymentStatus)
}

// BookingTransition names an input to the booking state machine.
type BookingTransition string

const (
	TransitionBookFree        BookingTransition = "book_free"
	TransitionAwaitPayment    BookingTransition = "await_payment"
	TransitionPaymentVerified BookingTransition = "payment_verified"
	TransitionPaymentFailed   BookingTransition = "payment_failed"
)

type transitionKey struct {
	from BookingState
	on   BookingTransition
}

var transitions = map[transitionKey]BookingState{
	{StateNew, TransitionBookFree}:                  StateConfirmed,
	{StateNew, TransitionAwaitPayment}:              StatePendingPayment,
	{StatePendingPayment, TransitionPaymentVerified}: StateConfirmed,
	{StatePendingPayment, TransitionPaymentFailed}:   StateFailed,
}

// Next returns the state reached from s on t.
func (s BookingState) Next(t BookingTransition) (BookingState, error) {
	next, ok := transitions[transitionKey{from: s, on: t}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, t, s)
	}
	return next, nil
}

// BookingDetails is the requester's personal and academic snapshot taken at
// booking time. It is never synced with later profile edits.
type BookingDetails struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	RollNumber string `json:"roll_number"`
	Degree     string `json:"degree"`
	College    string `json:"college"`
	Department string `json:"department"`
	Section    int    `json:"section"`
	Year       string `json:"year"`
}

// BookingPayment holds the gateway references of a paid booking.
// Amount is in minor currency units.
type BookingPayment struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method,omitempty"`
	Bank      string `json:"bank,omitempty"`
	VPA       string `json:"vpa,omitempty"`
	CardID    string `json:"card_id,omitempty"`
}

// Booking is a requester's reserved seat at an event.
// swagger:model Booking
type Booking struct {
	ID        string `json:"id"`
	BookingID string `json:"booking_id"`
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	BookingDetails
	BookingState
	Payment   *BookingPayment `json:"payment,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Apply moves the booking through the state machine.
func (b *Booking) Apply(t BookingTransition) error {
	next, err := b.BookingState.Next(t)
	if err != nil {
		return err
	}
	b.BookingState = next
	return nil
}

// BookingWithEvent bundles a booking with its event.
type BookingWithEvent struct {
	Booking *Booking `json:"booking"`
	Event   *Event   `json:"event"`
}

// BookingStats summarises the bookings of one event.
type BookingStats struct {
	TotalBookings     int            `json:"total_bookings"`
	ConfirmedBookings int            `json:"confirmed_bookings"`
	PaidBookings      int            `json:"paid_bookings"`
	ByCollege         map[string]int `json:"by_college"`
	ByDepartment      map[string]int `json:"by_department"`
}

// BookingRepository defines storage operations for bookings. Create must
// translate unique-constraint violations into ErrDuplicateUserBooking,
// ErrDuplicateRollBooking, or ErrBookingIDConflict.
type BookingRepository interface {
	Create(ctx context.Context, b *Booking) error
	GetByBookingID(ctx context.Context, bookingID string) (*Booking, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Booking, error)
	GetByEventAndRoll(ctx context.Context, eventID, rollNumber string) (*Booking, error)
	GetByOrderID(ctx context.Context, orderID string) (*Booking, error)
	ListByEvent(ctx context.Context, eventID string, params PaginationParams) ([]*Booking, int, error)
	ListAllByEvent(ctx context.Context, eventID string) ([]*Booking, error)
	ListByUser(ctx context.Context, userID string) ([]*Booking, error)
	Stats(ctx context.Context, eventID string) (*BookingStats, error)
}

// DuplicateGuard is the advisory pre-check for duplicate bookings.
type DuplicateGuard interface {
	Check(ctx context.Context, eventID, userID, rollNumber string) error
}

// BookingManager creates bookings. A nil payment selects the free path.
type BookingManager interface {
	Create(ctx context.Context, eventID, userID string, details BookingDetails, payment *BookingPayment) (*Booking, error)
}

// BookingExporter renders bookings of one event as a spreadsheet.
type BookingExporter interface {
	ContentType() string
	FileExtension() string
	Export(w io.Writer, event *Event, bookings []*Booking) error
}

// BookingService defines booking operations exposed over HTTP.
type BookingService interface {
	BookFree(ctx context.Context, eventID string, caller Identity, details BookingDetails) (*Booking, *Event, error)
	GetBooking(ctx context.Context, bookingID string) (*BookingWithEvent, error)
	ListEventBookings(ctx context.Context, eventID string, caller Identity, params PaginationParams) ([]*Booking, int, error)
	ListUserBookings(ctx context.Context, userID string) ([]*BookingWithEvent, error)
	EventBookingStats(ctx context.Context, eventID string, caller Identity) (*BookingStats, error)
	// EventBookingsForExport returns the event and every booking for it, oldest first.
	EventBookingsForExport(ctx context.Context, eventID string, caller Identity) (*Event, []*Booking, error)
}
