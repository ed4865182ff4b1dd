package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"eventx/internal/domain"
	"eventx/internal/metrics"
)

const receiptPartLength = 6

type paymentService struct {
	eventRepo      domain.EventRepository
	orderRepo      domain.PaymentOrderRepository
	manager        domain.BookingManager
	guard          domain.DuplicateGuard
	gateway        domain.PaymentGateway
	notifier       domain.Notifier
	currency       string
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewPaymentService(eventRepo domain.EventRepository,
	orderRepo domain.PaymentOrderRepository,
	manager domain.BookingManager,
	guard domain.DuplicateGuard,
	gateway domain.PaymentGateway,
	notifier domain.Notifier,
	currency string,
	logger *slog.Logger,
	timeout time.Duration,
) domain.PaymentService {
	return &paymentService{
		eventRepo:      eventRepo,
		orderRepo:      orderRepo,
		manager:        manager,
		guard:          guard,
		gateway:        gateway,
		notifier:       notifier,
		currency:       currency,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// CreateOrder opens a gateway order for a priced event. A free event is
// booked directly and the result carries the booking instead of an order.
func (s *paymentService) CreateOrder(ctx context.Context, eventID string, caller domain.Identity, details domain.BookingDetails) (*domain.OrderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	result := &domain.OrderResult{EventTitle: event.Title, EventPrice: event.Price}

	if event.IsFree() {
		booking, err := s.manager.Create(ctx, eventID, caller.UserID, details, nil)
		if err != nil {
			metrics.Booking("free", outcomeOf(err))
			return nil, err
		}
		metrics.Booking("free", "confirmed")
		s.notifier.BookingConfirmed(ctx, newBookingNotification(booking, event))
		result.Booking = booking
		return result, nil
	}

	if err := s.guard.Check(ctx, eventID, caller.UserID, details.RollNumber); err != nil {
		metrics.Booking("paid", outcomeOf(err))
		return nil, err
	}

	amount := event.Price.Shift(2).Round(0).IntPart()
	if amount < domain.MinOrderAmount {
		return nil, fmt.Errorf("%w: %d minor units is below the minimum of %d", domain.ErrInvalidAmount, amount, domain.MinOrderAmount)
	}

	now := s.now()
	req := &domain.OrderRequest{
		Amount:   amount,
		Currency: s.currency,
		Receipt:  receiptFor(eventID, now),
		Notes: map[string]string{
			"eventId":      eventID,
			"eventTitle":   event.Title,
			"studentName":  details.FullName,
			"studentEmail": details.Email,
			"rollNumber":   details.RollNumber,
		},
	}
	started := time.Now()
	order, err := s.gateway.CreateOrder(ctx, req)
	metrics.GatewayCall("create_order", started)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Create(ctx, &domain.PaymentOrder{
		OrderID:   order.ID,
		EventID:   eventID,
		UserID:    caller.UserID,
		Amount:    amount,
		Currency:  s.currency,
		Receipt:   req.Receipt,
		Status:    domain.OrderCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("record payment order %s: %w", order.ID, err)
	}

	result.PaymentRequired = true
	result.OrderID = order.ID
	result.Amount = amount
	result.Currency = s.currency
	result.PublishableKey = s.gateway.KeyID()
	return result, nil
}

// VerifyPayment authenticates the client confirmation, checks the gateway
// reports the payment captured for this order, and only then writes the booking.
func (s *paymentService) VerifyPayment(ctx context.Context, eventID string, caller domain.Identity, in *domain.VerifyPaymentInput) (*domain.Booking, *domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if event.IsFree() {
		return nil, nil, fmt.Errorf("%w: event does not require payment", domain.ErrInvalidInput)
	}

	if !s.gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature) {
		metrics.PaymentVerification("invalid_signature")
		s.logger.WarnContext(ctx, "payment signature mismatch", "order_id", in.OrderID, "payment_id", in.PaymentID)
		return nil, nil, domain.ErrInvalidSignature
	}

	order, err := s.orderRepo.GetByOrderID(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.PaymentVerification("order_mismatch")
			return nil, nil, fmt.Errorf("%w: unknown order %s", domain.ErrOrderMismatch, in.OrderID)
		}
		return nil, nil, fmt.Errorf("get payment order: %w", err)
	}
	if order.EventID != eventID || order.UserID != caller.UserID {
		metrics.PaymentVerification("order_mismatch")
		return nil, nil, domain.ErrOrderMismatch
	}

	started := time.Now()
	payment, err := s.gateway.FetchPayment(ctx, in.PaymentID)
	metrics.GatewayCall("fetch_payment", started)
	if err != nil {
		metrics.PaymentVerification("gateway_error")
		return nil, nil, err
	}
	if payment.Status != domain.GatewayCapturedStatus {
		metrics.PaymentVerification("not_captured")
		return nil, nil, fmt.Errorf("%w: status %q", domain.ErrPaymentNotCaptured, payment.Status)
	}
	if payment.OrderID != order.OrderID || payment.Amount != order.Amount {
		metrics.PaymentVerification("order_mismatch")
		return nil, nil, domain.ErrOrderMismatch
	}

	currency := payment.Currency
	if currency == "" {
		currency = order.Currency
	}
	booking, err := s.manager.Create(ctx, eventID, caller.UserID, in.Details, &domain.BookingPayment{
		PaymentID: payment.ID,
		OrderID:   order.OrderID,
		Amount:    payment.Amount,
		Currency:  currency,
		Method:    payment.Method,
		Bank:      payment.Bank,
		VPA:       payment.VPA,
		CardID:    payment.CardID,
	})
	if err != nil {
		metrics.Booking("paid", outcomeOf(err))
		return nil, nil, err
	}
	metrics.Booking("paid", "confirmed")
	metrics.PaymentVerification("verified")

	if err := s.orderRepo.UpdateStatus(ctx, order.OrderID, domain.OrderVerified, s.now()); err != nil {
		s.logger.ErrorContext(ctx, "mark payment order verified failed", "order_id", order.OrderID, "error", err)
	}
	s.notifier.BookingConfirmed(ctx, newBookingNotification(booking, event))
	return booking, event, nil
}

func (s *paymentService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// receiptFor builds evt_<last 6 of event id>_<last 6 digits of unix millis>,
// short enough for the gateway's 40 character receipt limit.
func receiptFor(eventID string, now time.Time) string {
	return "evt_" + lastN(eventID, receiptPartLength) + "_" + lastN(strconv.FormatInt(now.UnixMilli(), 10), receiptPartLength)
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
