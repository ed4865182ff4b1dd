package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventx/internal/domain"
)

// Unique constraints declared on the bookings table.
const (
	bookingIDConstraint = "bookings_booking_id_key"
	eventUserConstraint = "bookings_event_user_key"
	eventRollConstraint = "bookings_event_roll_key"
)

type bookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) domain.BookingRepository {
	return &bookingRepository{DB: db}
}

const bookingColumns = `id, booking_id, event_id, user_id, full_name, email, phone, roll_number, degree, college,
	department, section, year, status, payment_status, payment_id, order_id, payment_amount, payment_currency,
	payment_method, payment_bank, payment_vpa, payment_card_id, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*domain.Booking, error) {
	b := &domain.Booking{}
	var status, paymentStatus string
	var paymentID, orderID, currency, method, bank, vpa, cardID sql.NullString
	var amount sql.NullInt64
	err := row.Scan(
		&b.ID, &b.BookingID, &b.EventID, &b.UserID, &b.FullName, &b.Email, &b.Phone, &b.RollNumber, &b.Degree, &b.College,
		&b.Department, &b.Section, &b.Year, &status, &paymentStatus, &paymentID, &orderID, &amount, &currency,
		&method, &bank, &vpa, &cardID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	b.PaymentStatus = domain.PaymentStatus(paymentStatus)
	if paymentID.Valid {
		b.Payment = &domain.BookingPayment{
			PaymentID: paymentID.String,
			OrderID:   orderID.String,
			Amount:    amount.Int64,
			Currency:  currency.String,
			Method:    method.String,
			Bank:      bank.String,
			VPA:       vpa.String,
			CardID:    cardID.String,
		}
	}
	return b, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts the booking. Unique violations are reported as the
// matching domain duplicate errors.
func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	if !b.BookingState.Legal() {
		return fmt.Errorf("%w: cannot store %s", domain.ErrIllegalTransition, b.BookingState)
	}
	var p domain.BookingPayment
	var amount sql.NullInt64
	if b.Payment != nil {
		p = *b.Payment
		amount = sql.NullInt64{Int64: p.Amount, Valid: true}
	}
	query := `
		INSERT INTO bookings (booking_id, event_id, user_id, full_name, email, phone, roll_number, degree, college,
			department, section, year, status, payment_status, payment_id, order_id, payment_amount, payment_currency,
			payment_method, payment_bank, payment_vpa, payment_card_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		b.BookingID, b.EventID, b.UserID, b.FullName, b.Email, b.Phone, b.RollNumber, b.Degree, b.College,
		b.Department, b.Section, b.Year, string(b.Status), string(b.PaymentStatus),
		nullString(p.PaymentID), nullString(p.OrderID), amount, nullString(p.Currency),
		nullString(p.Method), nullString(p.Bank), nullString(p.VPA), nullString(p.CardID),
		b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err == nil {
		return nil
	}
	if name, ok := uniqueConstraint(err); ok {
		switch name {
		case bookingIDConstraint:
			return domain.ErrBookingIDConflict
		case eventUserConstraint:
			return domain.ErrDuplicateUserBooking
		case eventRollConstraint:
			return domain.ErrDuplicateRollBooking
		}
	}
	return err
}

func (r *bookingRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = $1`
	return scanBooking(r.DB.QueryRowContext(ctx, query, bookingID))
}

func (r *bookingRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE order_id = $1`
	return scanBooking(r.DB.QueryRowContext(ctx, query, orderID))
}

func (r *bookingRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE event_id = $1 AND user_id = $2`
	return scanBooking(r.DB.QueryRowContext(ctx, query, eventID, userID))
}

func (r *bookingRepository) GetByEventAndRoll(ctx context.Context, eventID, rollNumber string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE event_id = $1 AND roll_number = $2`
	return scanBooking(r.DB.QueryRowContext(ctx, query, eventID, rollNumber))
}

func (r *bookingRepository) ListByEvent(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Booking, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE event_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	bookings, err := r.list(ctx, query, eventID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *bookingRepository) ListAllByEvent(ctx context.Context, eventID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE event_id = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, eventID)
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *bookingRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) Stats(ctx context.Context, eventID string) (*domain.BookingStats, error) {
	stats := &domain.BookingStats{
		ByCollege:    map[string]int{},
		ByDepartment: map[string]int{},
	}
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'confirmed'),
			COUNT(*) FILTER (WHERE payment_status = 'paid')
		FROM bookings
		WHERE event_id = $1
	`
	if err := r.DB.QueryRowContext(ctx, query, eventID).
		Scan(&stats.TotalBookings, &stats.ConfirmedBookings, &stats.PaidBookings); err != nil {
		return nil, err
	}
	if err := r.breakdown(ctx, "college", eventID, stats.ByCollege); err != nil {
		return nil, err
	}
	if err := r.breakdown(ctx, "department", eventID, stats.ByDepartment); err != nil {
		return nil, err
	}
	return stats, nil
}

// breakdown counts bookings grouped by column; column is never user input.
func (r *bookingRepository) breakdown(ctx context.Context, column, eventID string, into map[string]int) error {
	query := `SELECT ` + column + `, COUNT(*) FROM bookings WHERE event_id = $1 GROUP BY ` + column
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("%s breakdown: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}
