package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventx/internal/domain"
	"eventx/internal/metrics"
)

type bookingService struct {
	eventRepo      domain.EventRepository
	bookingRepo    domain.BookingRepository
	manager        domain.BookingManager
	notifier       domain.Notifier
	contextTimeout time.Duration
}

func NewBookingService(eventRepo domain.EventRepository,
	bookingRepo domain.BookingRepository,
	manager domain.BookingManager,
	notifier domain.Notifier,
	timeout time.Duration,
) domain.BookingService {
	return &bookingService{
		eventRepo:      eventRepo,
		bookingRepo:    bookingRepo,
		manager:        manager,
		notifier:       notifier,
		contextTimeout: timeout,
	}
}

// BookFree books a free event. Priced events only book through payment verification.
func (s *bookingService) BookFree(ctx context.Context, eventID string, caller domain.Identity, details domain.BookingDetails) (*domain.Booking, *domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if !event.IsFree() {
		return nil, nil, domain.ErrPaymentRequired
	}

	booking, err := s.manager.Create(ctx, eventID, caller.UserID, details, nil)
	if err != nil {
		metrics.Booking("free", outcomeOf(err))
		return nil, nil, err
	}
	metrics.Booking("free", "confirmed")
	s.notifier.BookingConfirmed(ctx, newBookingNotification(booking, event))
	return booking, event, nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*domain.BookingWithEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	booking, err := s.bookingRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	event, err := s.getEvent(ctx, booking.EventID)
	if err != nil {
		return nil, err
	}
	return &domain.BookingWithEvent{Booking: booking, Event: event}, nil
}

func (s *bookingService) ListEventBookings(ctx context.Context, eventID string, caller domain.Identity, params domain.PaginationParams) ([]*domain.Booking, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.ownedEvent(ctx, eventID, caller); err != nil {
		return nil, 0, err
	}
	bookings, total, err := s.bookingRepo.ListByEvent(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	if bookings == nil {
		bookings = []*domain.Booking{}
	}
	return bookings, total, nil
}

func (s *bookingService) ListUserBookings(ctx context.Context, userID string) ([]*domain.BookingWithEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	bookings, err := s.bookingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	events := make(map[string]*domain.Event)
	out := make([]*domain.BookingWithEvent, 0, len(bookings))
	for _, b := range bookings {
		event, ok := events[b.EventID]
		if !ok {
			event, err = s.eventRepo.GetByID(ctx, b.EventID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("get event %s: %w", b.EventID, err)
			}
			events[b.EventID] = event
		}
		out = append(out, &domain.BookingWithEvent{Booking: b, Event: event})
	}
	return out, nil
}

func (s *bookingService) EventBookingStats(ctx context.Context, eventID string, caller domain.Identity) (*domain.BookingStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.ownedEvent(ctx, eventID, caller); err != nil {
		return nil, err
	}
	stats, err := s.bookingRepo.Stats(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("booking stats: %w", err)
	}
	return stats, nil
}

func (s *bookingService) EventBookingsForExport(ctx context.Context, eventID string, caller domain.Identity) (*domain.Event, []*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.ownedEvent(ctx, eventID, caller)
	if err != nil {
		return nil, nil, err
	}
	bookings, err := s.bookingRepo.ListAllByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("list bookings: %w", err)
	}
	return event, bookings, nil
}

func (s *bookingService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// ownedEvent loads the event and requires the caller to be its creator.
func (s *bookingService) ownedEvent(ctx context.Context, eventID string, caller domain.Identity) (*domain.Event, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !caller.IsClubAdmin() || event.CreatorID != caller.UserID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

// outcomeOf labels a failed booking attempt for metrics.
func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateUserBooking):
		return "duplicate_user"
	case errors.Is(err, domain.ErrDuplicateRollBooking):
		return "duplicate_roll"
	case errors.Is(err, domain.ErrBookingIDExhausted):
		return "id_exhausted"
	}
	return string(domain.Classify(err))
}
