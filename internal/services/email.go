package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventx/internal/domain"
)

const (
	templateBookingConfirmation = "booking_confirmation"
	templatePaymentReceipt      = "payment_receipt"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendBookingConfirmation sends the "booking_confirmation" template.
func (s *emailService) SendBookingConfirmation(ctx context.Context, data *domain.BookingConfirmationEmailData) error {
	if data == nil {
		return fmt.Errorf("booking confirmation data is nil")
	}
	if err := s.send(ctx, templateBookingConfirmation, data.Email, data); err != nil {
		return fmt.Errorf("send booking confirmation: %w", err)
	}
	s.logger.InfoContext(ctx, "booking confirmation sent", "booking_id", data.BookingID)
	return nil
}

// SendPaymentReceipt sends the "payment_receipt" template.
func (s *emailService) SendPaymentReceipt(ctx context.Context, data *domain.PaymentReceiptEmailData) error {
	if data == nil {
		return fmt.Errorf("payment receipt data is nil")
	}
	if err := s.send(ctx, templatePaymentReceipt, data.Email, data); err != nil {
		return fmt.Errorf("send payment receipt: %w", err)
	}
	s.logger.InfoContext(ctx, "payment receipt sent", "payment_id", data.PaymentID)
	return nil
}

func (s *emailService) send(ctx context.Context, template, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", template, err)
	}
	return s.mailer.Send(ctx, to, subject, htmlBody, textBody)
}
