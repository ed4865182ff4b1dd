package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventx/internal/domain"
)

type paymentOrderRepository struct {
	DB *sql.DB
}

func NewPaymentOrderRepository(db *sql.DB) domain.PaymentOrderRepository {
	return &paymentOrderRepository{DB: db}
}

const paymentOrderColumns = `order_id, event_id, user_id, amount, currency, receipt, status, created_at, updated_at`

func scanPaymentOrder(row interface{ Scan(...any) error }) (*domain.PaymentOrder, error) {
	o := &domain.PaymentOrder{}
	var status string
	err := row.Scan(&o.OrderID, &o.EventID, &o.UserID, &o.Amount, &o.Currency, &o.Receipt, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

func (r *paymentOrderRepository) Create(ctx context.Context, o *domain.PaymentOrder) error {
	query := `
		INSERT INTO payment_orders (order_id, event_id, user_id, amount, currency, receipt, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.DB.ExecContext(ctx, query,
		o.OrderID, o.EventID, o.UserID, o.Amount, o.Currency, o.Receipt, string(o.Status), o.CreatedAt, o.UpdatedAt)
	return err
}

func (r *paymentOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentOrder, error) {
	query := `SELECT ` + paymentOrderColumns + ` FROM payment_orders WHERE order_id = $1`
	return scanPaymentOrder(r.DB.QueryRowContext(ctx, query, orderID))
}

func (r *paymentOrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE payment_orders SET status = $1, updated_at = $2 WHERE order_id = $3`,
		string(status), updatedAt, orderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListStale returns orders still in created state that were opened before createdBefore, oldest first.
func (r *paymentOrderRepository) ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.PaymentOrder, error) {
	query := `
		SELECT ` + paymentOrderColumns + `
		FROM payment_orders
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3
	`
	rows, err := r.DB.QueryContext(ctx, query, string(domain.OrderCreated), createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*domain.PaymentOrder, 0)
	for rows.Next() {
		o, err := scanPaymentOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
