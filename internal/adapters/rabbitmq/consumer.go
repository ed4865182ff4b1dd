package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"eventx/internal/domain"
)

// DefaultMaxAttempts bounds redelivery of a failing notification.
const DefaultMaxAttempts = 5

// Handler processes one notification. A returned error schedules a delayed
// retry carrying any progress the handler recorded on the notification.
type Handler func(ctx context.Context, n *domain.BookingNotification) error

// Consumer drains the booking notification queue.
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	retry       *Publisher
	maxAttempts int32
	logger      *slog.Logger
}

func NewConsumer(url string, maxAttempts int, logger *slog.Logger) (*Consumer, error) {
	conn, ch, err := Dial(url)
	if err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(QueueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	if err := ch.QueueBind(q.Name, "booking.*", ExchangeName, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq queue bind: %w", err)
	}

	if err := declareRetryQueues(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.Qos(10, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq qos: %w", err)
	}

	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Consumer{
		conn:        conn,
		channel:     ch,
		retry:       &Publisher{pub: ch, logger: logger},
		maxAttempts: int32(maxAttempts),
		logger:      logger,
	}, nil
}

func declareRetryQueues(ch *amqp.Channel) error {
	for _, delay := range RetryDelays {
		_, err := ch.QueueDeclare(retryQueueName(delay), true, false, false, false, amqp.Table{
			"x-message-ttl":             delay.Milliseconds(),
			"x-dead-letter-exchange":    ExchangeName,
			"x-dead-letter-routing-key": RoutingBookingConfirmed,
		})
		if err != nil {
			return fmt.Errorf("rabbitmq retry queue declare: %w", err)
		}
	}
	return nil
}

// Run consumes until ctx is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	msgs, err := c.channel.ConsumeWithContext(
		ctx,
		QueueName,
		"",    // consumer tag
		false, // manual ack after processing
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	c.logger.Info("consuming notifications", "queue", QueueName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn("delivery channel closed, stopping consumer")
				return nil
			}
			c.handleMessage(ctx, msg, handle)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery, handle Handler) {
	var n domain.BookingNotification
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		c.logger.ErrorContext(ctx, "dropping malformed notification", "message_id", msg.MessageId, "error", err)
		msg.Nack(false, false)
		return
	}

	attempt := attemptOf(msg)
	if err := handle(ctx, &n); err != nil {
		if attempt >= c.maxAttempts {
			c.logger.ErrorContext(ctx, "notification failed permanently",
				"booking_id", n.BookingID, "attempt", attempt, "error", err)
			msg.Nack(false, false)
			return
		}
		c.logger.WarnContext(ctx, "notification failed, retrying",
			"booking_id", n.BookingID, "attempt", attempt, "retry_in", retryDelay(attempt+1),
			"delivered", n.Delivered, "error", err)
		if perr := c.retry.publishRetry(ctx, &n, attempt+1); perr != nil {
			c.logger.ErrorContext(ctx, "requeue failed", "booking_id", n.BookingID, "error", perr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}
	msg.Ack(false)
}

func attemptOf(msg amqp.Delivery) int32 {
	switch v := msg.Headers[AttemptHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	}
	return 1
}

func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
