package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MinOrderAmount is the smallest order the gateway accepts, in minor units.
const MinOrderAmount int64 = 100

// GatewayCapturedStatus is the gateway payment status meaning funds are collected.
const GatewayCapturedStatus = "captured"

// OrderRequest asks the gateway for a new order.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// GatewayOrder is an order created at the gateway.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

// GatewayPayment is the authoritative payment record fetched from the gateway.
type GatewayPayment struct {
	ID       string
	OrderID  string
	Status   string
	Amount   int64
	Currency string
	Method   string
	Bank     string
	VPA      string
	CardID   string
}

// PaymentGateway is the third-party payment provider.
type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, req *OrderRequest) (*GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
	// FetchOrderPayments lists payments attempted against an order.
	FetchOrderPayments(ctx context.Context, orderID string) ([]*GatewayPayment, error)
	// VerifySignature checks the client-supplied signature over orderID|paymentID.
	VerifySignature(orderID, paymentID, signature string) bool
}

// OrderStatus is the lifecycle status of a locally tracked gateway order.
type OrderStatus string

const (
	OrderCreated  OrderStatus = "created"
	OrderVerified OrderStatus = "verified"
	OrderExpired  OrderStatus = "expired"
	OrderOrphaned OrderStatus = "orphaned"
)

// PaymentOrder is the local record of a gateway order.
type PaymentOrder struct {
	OrderID   string      `json:"order_id"`
	EventID   string      `json:"event_id"`
	UserID    string      `json:"user_id"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
	Receipt   string      `json:"receipt"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// PaymentOrderRepository stores locally tracked gateway orders.
type PaymentOrderRepository interface {
	Create(ctx context.Context, o *PaymentOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*PaymentOrder, error)
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus, updatedAt time.Time) error
	ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]*PaymentOrder, error)
}

// OrderResult is returned by CreateOrder. When PaymentRequired is false the
// event was free and Booking holds the confirmed booking.
type OrderResult struct {
	PaymentRequired bool            `json:"payment_required"`
	OrderID         string          `json:"order_id,omitempty"`
	Amount          int64           `json:"amount,omitempty"`
	Currency        string          `json:"currency,omitempty"`
	PublishableKey  string          `json:"publishable_key,omitempty"`
	EventTitle      string          `json:"event_title"`
	EventPrice      decimal.Decimal `json:"event_price" swaggertype:"string"`
	Booking         *Booking        `json:"booking,omitempty"`
}

// VerifyPaymentInput is the client confirmation of a gateway payment.
type VerifyPaymentInput struct {
	OrderID   string
	PaymentID string
	Signature string
	Details   BookingDetails
}

// PaymentService orchestrates order creation and verification.
type PaymentService interface {
	CreateOrder(ctx context.Context, eventID string, caller Identity, details BookingDetails) (*OrderResult, error)
	VerifyPayment(ctx context.Context, eventID string, caller Identity, in *VerifyPaymentInput) (*Booking, *Event, error)
}
