package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"eventx/internal/domain"
)

const (
	ExchangeName = "eventx.notifications"
	ExchangeKind = "topic"
	QueueName    = "eventx.notifications.booking"

	RoutingBookingConfirmed = "booking.confirmed"

	// AttemptHeader counts deliveries of a notification.
	AttemptHeader = "x-attempt"
)

// RetryDelays is the wait before each redelivery of a failed notification.
// The last delay repeats. Each delay has its own queue with a fixed message
// TTL that dead-letters back into the notifications exchange.
var RetryDelays = []time.Duration{15 * time.Second, time.Minute, 5 * time.Minute, 15 * time.Minute}

// retryDelay returns the wait before delivery number attempt (2 or more).
func retryDelay(attempt int32) time.Duration {
	i := int(attempt) - 2
	if i < 0 {
		i = 0
	}
	if i >= len(RetryDelays) {
		i = len(RetryDelays) - 1
	}
	return RetryDelays[i]
}

func retryQueueName(delay time.Duration) string {
	return QueueName + ".retry." + delay.String()
}

// channelPublisher is the publishing half of *amqp.Channel.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends booking notifications to the notifications exchange.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	mu     sync.Mutex
	pub    channelPublisher
	logger *slog.Logger
}

// Dial opens a connection and a channel with the notifications exchange declared.
func Dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, ExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	return conn, ch, nil
}

func NewPublisher(url string, logger *slog.Logger) (*Publisher, error) {
	conn, ch, err := Dial(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, channel: ch, pub: ch, logger: logger}, nil
}

// Publish implements domain.NotificationPublisher.
func (p *Publisher) Publish(ctx context.Context, n *domain.BookingNotification) error {
	return p.publish(ctx, ExchangeName, RoutingBookingConfirmed, n, 1)
}

// publishRetry parks n in the delay queue for its next attempt. Publishing to
// the default exchange routes by queue name.
func (p *Publisher) publishRetry(ctx context.Context, n *domain.BookingNotification, attempt int32) error {
	return p.publish(ctx, "", retryQueueName(retryDelay(attempt)), n, attempt)
}

func (p *Publisher) publish(ctx context.Context, exchange, key string, n *domain.BookingNotification, attempt int32) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.pub.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{AttemptHeader: attempt},
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	p.logger.DebugContext(ctx, "notification published",
		"routing_key", key, "booking_id", n.BookingID, "attempt", attempt)
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

var _ domain.NotificationPublisher = (*Publisher)(nil)
