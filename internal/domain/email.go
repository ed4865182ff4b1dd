package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EventSummary is the part of an event quoted in emails.
type EventSummary struct {
	Title    string    `json:"title"`
	DateTime time.Time `json:"date_time"`
	Location string    `json:"location"`
	Price    string    `json:"price"`
}

// BookingConfirmationEmailData holds data for the booking confirmation email.
type BookingConfirmationEmailData struct {
	Email     string
	Name      string
	Event     EventSummary
	BookingID string
	PaymentID string // empty for free events
	Amount    string // major units, e.g. "500.00"
	Currency  string
}

// PaymentReceiptEmailData holds data for the payment receipt email.
type PaymentReceiptEmailData struct {
	Email         string
	Name          string
	PaymentID     string
	Amount        string
	Currency      string
	PaymentMethod string
	Bank          string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendBookingConfirmation(ctx context.Context, data *BookingConfirmationEmailData) error
	SendPaymentReceipt(ctx context.Context, data *PaymentReceiptEmailData) error
}

// BookingNotification is published after a booking commits and consumed by
// the notification worker.
type BookingNotification struct {
	ID        string        `json:"id"`
	Recipient string        `json:"recipient"`
	Name      string        `json:"name"`
	Event     EventSummary  `json:"event"`
	BookingID string        `json:"booking_id"`
	Payment   *ReceiptLines `json:"payment,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	// Delivered lists the emails already sent, so a retry only resends what failed.
	Delivered []NotificationPart `json:"delivered,omitempty"`
}

// NotificationPart is one email produced from a BookingNotification.
type NotificationPart string

const (
	PartConfirmation NotificationPart = "confirmation"
	PartReceipt      NotificationPart = "receipt"
)

func (n *BookingNotification) IsDelivered(part NotificationPart) bool {
	for _, p := range n.Delivered {
		if p == part {
			return true
		}
	}
	return false
}

func (n *BookingNotification) MarkDelivered(part NotificationPart) {
	if !n.IsDelivered(part) {
		n.Delivered = append(n.Delivered, part)
	}
}

// ReceiptLines are the payment fields of a paid booking notification.
type ReceiptLines struct {
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method,omitempty"`
	Bank      string `json:"bank,omitempty"`
}

// Notifier dispatches booking notifications off the critical path. It never
// reports failure to the caller.
type Notifier interface {
	BookingConfirmed(ctx context.Context, n *BookingNotification)
}

// NotificationPublisher hands notifications to a durable queue.
type NotificationPublisher interface {
	Publish(ctx context.Context, n *BookingNotification) error
}
