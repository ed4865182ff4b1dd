package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	rzp "github.com/razorpay/razorpay-go"

	"eventx/internal/domain"
)

// orderAPI is the part of the Razorpay order resource used here.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Payments(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// paymentAPI is the part of the Razorpay payment resource used here.
type paymentAPI interface {
	Fetch(paymentID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type gateway struct {
	keyID     string
	keySecret []byte
	orders    orderAPI
	payments  paymentAPI
	logger    *slog.Logger
}

// NewGateway returns a PaymentGateway backed by Razorpay. With an empty key
// pair it returns a gateway that refuses every call.
func NewGateway(keyID, keySecret string, logger *slog.Logger) domain.PaymentGateway {
	if keyID == "" || keySecret == "" {
		logger.Warn("razorpay keys not configured; paid bookings are disabled")
		return disabledGateway{}
	}
	client := rzp.NewClient(keyID, keySecret)
	return &gateway{
		keyID:     keyID,
		keySecret: []byte(keySecret),
		orders:    client.Order,
		payments:  client.Payment,
		logger:    logger,
	}
}

func (g *gateway) KeyID() string { return g.keyID }

func (g *gateway) CreateOrder(ctx context.Context, req *domain.OrderRequest) (*domain.GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	body, err := g.orders.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		g.logger.ErrorContext(ctx, "razorpay order create failed", "receipt", req.Receipt, "error", err)
		return nil, fmt.Errorf("%w: create order: %v", domain.ErrGateway, err)
	}
	order := &domain.GatewayOrder{
		ID:       str(body, "id"),
		Amount:   minor(body, "amount"),
		Currency: str(body, "currency"),
		Receipt:  str(body, "receipt"),
		Status:   str(body, "status"),
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: create order: response without id", domain.ErrGateway)
	}
	return order, nil
}

func (g *gateway) FetchPayment(ctx context.Context, paymentID string) (*domain.GatewayPayment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := g.payments.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch payment %s: %v", domain.ErrGateway, paymentID, err)
	}
	return toPayment(body), nil
}

func (g *gateway) FetchOrderPayments(ctx context.Context, orderID string) ([]*domain.GatewayPayment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := g.orders.Payments(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch order payments %s: %v", domain.ErrGateway, orderID, err)
	}
	items, _ := body["items"].([]interface{})
	out := make([]*domain.GatewayPayment, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]interface{}); ok {
			out = append(out, toPayment(m))
		}
	}
	return out, nil
}

// VerifySignature checks signature against HMAC-SHA256(orderID|paymentID)
// keyed with the account secret.
func (g *gateway) VerifySignature(orderID, paymentID, signature string) bool {
	return verifySignature(g.keySecret, orderID, paymentID, signature)
}

func verifySignature(secret []byte, orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hmac.Equal(mac.Sum(nil), got)
}

func toPayment(m map[string]interface{}) *domain.GatewayPayment {
	return &domain.GatewayPayment{
		ID:       str(m, "id"),
		OrderID:  str(m, "order_id"),
		Status:   str(m, "status"),
		Amount:   minor(m, "amount"),
		Currency: str(m, "currency"),
		Method:   str(m, "method"),
		Bank:     str(m, "bank"),
		VPA:      str(m, "vpa"),
		CardID:   str(m, "card_id"),
	}
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// minor reads a JSON number that the client decoded as float64.
func minor(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

type disabledGateway struct{}

func (disabledGateway) KeyID() string { return "" }

func (disabledGateway) CreateOrder(context.Context, *domain.OrderRequest) (*domain.GatewayOrder, error) {
	return nil, fmt.Errorf("%w: payments are not configured", domain.ErrGateway)
}

func (disabledGateway) FetchPayment(context.Context, string) (*domain.GatewayPayment, error) {
	return nil, fmt.Errorf("%w: payments are not configured", domain.ErrGateway)
}

func (disabledGateway) FetchOrderPayments(context.Context, string) ([]*domain.GatewayPayment, error) {
	return nil, fmt.Errorf("%w: payments are not configured", domain.ErrGateway)
}

func (disabledGateway) VerifySignature(string, string, string) bool { return false }
