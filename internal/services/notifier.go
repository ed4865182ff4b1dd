package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eventx/internal/domain"
	"eventx/internal/metrics"
)

// newBookingNotification snapshots what the emails need from a committed booking.
func newBookingNotification(b *domain.Booking, e *domain.Event) *domain.BookingNotification {
	n := &domain.BookingNotification{
		ID:        uuid.NewString(),
		Recipient: b.Email,
		Name:      b.FullName,
		Event: domain.EventSummary{
			Title:    e.Title,
			DateTime: e.DateTime,
			Location: e.Location,
			Price:    e.Price.StringFixed(2),
		},
		BookingID: b.BookingID,
		CreatedAt: time.Now().UTC(),
	}
	if b.Payment != nil {
		n.Payment = &domain.ReceiptLines{
			PaymentID: b.Payment.PaymentID,
			Amount:    decimal.New(b.Payment.Amount, -2).StringFixed(2),
			Currency:  b.Payment.Currency,
			Method:    b.Payment.Method,
			Bank:      b.Payment.Bank,
		}
	}
	return n
}

// NotificationDeliverer turns a notification into emails.
type NotificationDeliverer struct {
	emails domain.EmailService
}

func NewNotificationDeliverer(emails domain.EmailService) *NotificationDeliverer {
	return &NotificationDeliverer{emails: emails}
}

// Deliver sends the booking confirmation and, for paid bookings, the receipt.
// Parts that succeed are marked on n; parts already marked are skipped.
func (d *NotificationDeliverer) Deliver(ctx context.Context, n *domain.BookingNotification) error {
	var err error
	if !n.IsDelivered(domain.PartConfirmation) {
		confirmation := &domain.BookingConfirmationEmailData{
			Email:     n.Recipient,
			Name:      n.Name,
			Event:     n.Event,
			BookingID: n.BookingID,
		}
		if n.Payment != nil {
			confirmation.PaymentID = n.Payment.PaymentID
			confirmation.Amount = n.Payment.Amount
			confirmation.Currency = n.Payment.Currency
		}
		if cerr := d.emails.SendBookingConfirmation(ctx, confirmation); cerr != nil {
			err = cerr
		} else {
			n.MarkDelivered(domain.PartConfirmation)
		}
	}

	if n.Payment != nil && !n.IsDelivered(domain.PartReceipt) {
		rerr := d.emails.SendPaymentReceipt(ctx, &domain.PaymentReceiptEmailData{
			Email:         n.Recipient,
			Name:          n.Name,
			PaymentID:     n.Payment.PaymentID,
			Amount:        n.Payment.Amount,
			Currency:      n.Payment.Currency,
			PaymentMethod: n.Payment.Method,
			Bank:          n.Payment.Bank,
		})
		if rerr != nil {
			err = errors.Join(err, rerr)
		} else {
			n.MarkDelivered(domain.PartReceipt)
		}
	}
	if err != nil {
		metrics.Notification("deliver", "failed")
		return err
	}
	metrics.Notification("deliver", "sent")
	return nil
}

type queueNotifier struct {
	publisher domain.NotificationPublisher
	logger    *slog.Logger
}

// NewQueueNotifier hands notifications to the outbox queue. Publish failures
// are logged and dropped.
func NewQueueNotifier(publisher domain.NotificationPublisher, logger *slog.Logger) domain.Notifier {
	return &queueNotifier{publisher: publisher, logger: logger}
}

func (q *queueNotifier) BookingConfirmed(ctx context.Context, n *domain.BookingNotification) {
	if err := q.publisher.Publish(context.WithoutCancel(ctx), n); err != nil {
		metrics.Notification("publish", "failed")
		q.logger.ErrorContext(ctx, "publish booking notification failed", "booking_id", n.BookingID, "error", err)
		return
	}
	metrics.Notification("publish", "queued")
}

// InProcessNotifier delivers in a goroutine when no queue is configured.
type InProcessNotifier struct {
	deliverer *NotificationDeliverer
	timeout   time.Duration
	logger    *slog.Logger
	wg        sync.WaitGroup
}

func NewInProcessNotifier(deliverer *NotificationDeliverer, timeout time.Duration, logger *slog.Logger) *InProcessNotifier {
	return &InProcessNotifier{deliverer: deliverer, timeout: timeout, logger: logger}
}

func (p *InProcessNotifier) BookingConfirmed(ctx context.Context, n *domain.BookingNotification) {
	ctx = context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		if err := p.deliverer.Deliver(ctx, n); err != nil {
			p.logger.ErrorContext(ctx, "booking notification failed", "booking_id", n.BookingID, "error", err)
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (p *InProcessNotifier) Wait() {
	p.wg.Wait()
}
