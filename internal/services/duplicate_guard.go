package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"eventx/internal/domain"
)

type duplicateGuard struct {
	bookingRepo domain.BookingRepository
}

// NewDuplicateGuard returns the advisory duplicate check. The unique indexes
// on bookings remain the authority; this only produces the friendly error in
// the non-racing case.
func NewDuplicateGuard(bookingRepo domain.BookingRepository) domain.DuplicateGuard {
	return &duplicateGuard{bookingRepo: bookingRepo}
}

// Check runs both lookups concurrently. A user duplicate wins over a roll
// duplicate and carries the existing booking id.
func (g *duplicateGuard) Check(ctx context.Context, eventID, userID, rollNumber string) error {
	var byUser, byRoll *domain.Booking
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		b, err := g.bookingRepo.GetByEventAndUser(egCtx, eventID, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("lookup booking by user: %w", err)
		}
		byUser = b
		return nil
	})
	eg.Go(func() error {
		b, err := g.bookingRepo.GetByEventAndRoll(egCtx, eventID, rollNumber)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("lookup booking by roll number: %w", err)
		}
		byRoll = b
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	if byUser != nil {
		return &domain.DuplicateBookingError{Err: domain.ErrDuplicateUserBooking, BookingID: byUser.BookingID}
	}
	if byRoll != nil {
		return &domain.DuplicateBookingError{Err: domain.ErrDuplicateRollBooking}
	}
	return nil
}
