package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventx/internal/domain"
)

type bookingManager struct {
	eventRepo   domain.EventRepository
	bookingRepo domain.BookingRepository
	guard       domain.DuplicateGuard
	logger      *slog.Logger
	now         func() time.Time
}

// NewBookingManager returns the only writer of bookings.
func NewBookingManager(eventRepo domain.EventRepository, bookingRepo domain.BookingRepository, guard domain.DuplicateGuard, logger *slog.Logger) domain.BookingManager {
	return &bookingManager{
		eventRepo:   eventRepo,
		bookingRepo: bookingRepo,
		guard:       guard,
		logger:      logger,
		now:         time.Now,
	}
}

// Create persists a confirmed booking. A nil payment is the free path; a
// non-nil payment must already be verified and is confirmed in the same write.
func (m *bookingManager) Create(ctx context.Context, eventID, userID string, details domain.BookingDetails, payment *domain.BookingPayment) (*domain.Booking, error) {
	if _, err := m.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if err := m.guard.Check(ctx, eventID, userID, details.RollNumber); err != nil {
		return nil, err
	}

	now := m.now()
	booking := &domain.Booking{
		EventID:        eventID,
		UserID:         userID,
		BookingDetails: details,
		Payment:        payment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if payment == nil {
		if err := booking.Apply(domain.TransitionBookFree); err != nil {
			return nil, err
		}
	} else {
		if err := booking.Apply(domain.TransitionAwaitPayment); err != nil {
			return nil, err
		}
		if err := booking.Apply(domain.TransitionPaymentVerified); err != nil {
			return nil, err
		}
	}

	// One regeneration on a booking id collision, then give up.
	for attempt := 1; attempt <= 2; attempt++ {
		id, err := generateBookingID(now)
		if err != nil {
			return nil, fmt.Errorf("generate booking id: %w", err)
		}
		booking.BookingID = id

		err = m.bookingRepo.Create(ctx, booking)
		switch {
		case err == nil:
			return booking, nil
		case errors.Is(err, domain.ErrBookingIDConflict):
			m.logger.WarnContext(ctx, "booking id collision", "booking_id", id, "attempt", attempt)
			continue
		case errors.Is(err, domain.ErrDuplicateUserBooking):
			return nil, &domain.DuplicateBookingError{
				Err:       domain.ErrDuplicateUserBooking,
				BookingID: m.existingBookingID(ctx, eventID, userID),
			}
		case errors.Is(err, domain.ErrDuplicateRollBooking):
			return nil, &domain.DuplicateBookingError{Err: domain.ErrDuplicateRollBooking}
		default:
			return nil, fmt.Errorf("create booking: %w", err)
		}
	}
	return nil, domain.ErrBookingIDExhausted
}

// existingBookingID looks up the winning booking after a lost race. Failure
// only costs the friendly booking id in the response.
func (m *bookingManager) existingBookingID(ctx context.Context, eventID, userID string) string {
	b, err := m.bookingRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		m.logger.WarnContext(ctx, "lookup of existing booking failed", "event_id", eventID, "error", err)
		return ""
	}
	return b.BookingID
}
