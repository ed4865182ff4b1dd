package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventx/internal/domain"
	"eventx/internal/metrics"
)

const reconcileBatchSize = 100

// OrderReconciler resolves gateway orders that were created but never verified.
type OrderReconciler struct {
	orderRepo   domain.PaymentOrderRepository
	bookingRepo domain.BookingRepository
	gateway     domain.PaymentGateway
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewOrderReconciler(orderRepo domain.PaymentOrderRepository, bookingRepo domain.BookingRepository, gateway domain.PaymentGateway, ttl time.Duration, logger *slog.Logger) *OrderReconciler {
	return &OrderReconciler{
		orderRepo:   orderRepo,
		bookingRepo: bookingRepo,
		gateway:     gateway,
		ttl:         ttl,
		logger:      logger,
		now:         time.Now,
	}
}

// Run sweeps every interval until ctx is cancelled.
func (r *OrderReconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("order reconciler started", "interval", interval, "order_ttl", r.ttl)
	for {
		if _, err := r.Sweep(ctx); err != nil {
			r.logger.ErrorContext(ctx, "order reconciliation failed", "error", err)
		}
		select {
		case <-ctx.Done():
			r.logger.Info("order reconciler stopping")
			return
		case <-ticker.C:
		}
	}
}

// Sweep handles one batch of stale created orders. An order with a captured
// payment is marked verified when a booking already carries it (the status
// write after booking failed) and orphaned for manual follow-up otherwise;
// anything else expires. Orders whose lookups fail stay created for the
// next sweep.
func (r *OrderReconciler) Sweep(ctx context.Context) (int, error) {
	stale, err := r.orderRepo.ListStale(ctx, r.now().Add(-r.ttl), reconcileBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale orders: %w", err)
	}

	resolved := 0
	for _, order := range stale {
		payments, err := r.gateway.FetchOrderPayments(ctx, order.OrderID)
		if err != nil {
			r.logger.WarnContext(ctx, "fetch order payments failed", "order_id", order.OrderID, "error", err)
			continue
		}

		var captured *domain.GatewayPayment
		for _, p := range payments {
			if p.Status == domain.GatewayCapturedStatus {
				captured = p
				break
			}
		}

		status := domain.OrderExpired
		if captured != nil {
			status, err = r.capturedStatus(ctx, order, captured)
			if err != nil {
				r.logger.WarnContext(ctx, "booking lookup failed", "order_id", order.OrderID, "error", err)
				continue
			}
		}

		if err := r.orderRepo.UpdateStatus(ctx, order.OrderID, status, r.now()); err != nil {
			r.logger.WarnContext(ctx, "update order status failed", "order_id", order.OrderID, "error", err)
			continue
		}
		metrics.ReconciledOrder(string(status))
		resolved++
	}
	return resolved, nil
}

func (r *OrderReconciler) capturedStatus(ctx context.Context, order *domain.PaymentOrder, p *domain.GatewayPayment) (domain.OrderStatus, error) {
	b, err := r.bookingRepo.GetByOrderID(ctx, order.OrderID)
	switch {
	case err == nil:
		r.logger.InfoContext(ctx, "order already booked, marking verified",
			"order_id", order.OrderID, "booking_id", b.BookingID, "payment_id", p.ID)
		return domain.OrderVerified, nil
	case errors.Is(err, domain.ErrNotFound):
		r.logger.ErrorContext(ctx, "captured payment was never verified",
			"order_id", order.OrderID, "payment_id", p.ID, "event_id", order.EventID,
			"user_id", order.UserID, "amount", p.Amount)
		return domain.OrderOrphaned, nil
	default:
		return "", err
	}
}
