// Command worker sends booking emails from the notification queue and
// reconciles stale payment orders.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/lib/pq"

	"eventx/config"
	"eventx/internal/adapters/email"
	"eventx/internal/adapters/rabbitmq"
	"eventx/internal/adapters/razorpay"
	"eventx/internal/repository/postgres"
	"eventx/internal/services"
)

func main() {
	logger := config.NewLogger("eventx-worker")
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.RabbitURL == "" {
		return errors.New("RABBITMQ_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.AWSRegion,
			AccessKeyID:     cfg.Email.AWSAccessKeyID,
			SecretAccessKey: cfg.Email.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		return err
	}
	deliverer := services.NewNotificationDeliverer(services.NewEmailService(mailer, email.NewTemplateRenderer(), logger))

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, rabbitmq.DefaultMaxAttempts, logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	var wg sync.WaitGroup
	if cfg.Payment.Enabled() {
		reconciler := services.NewOrderReconciler(
			postgres.NewPaymentOrderRepository(db),
			postgres.NewBookingRepository(db),
			razorpay.NewGateway(cfg.Payment.KeyID, cfg.Payment.KeySecret, logger),
			cfg.Payment.OrderTTL,
			logger,
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			reconciler.Run(ctx, cfg.Payment.ReconcileInterval)
		}()
	} else {
		logger.Warn("payment gateway not configured; order reconciliation disabled")
	}

	logger.Info("worker started", "queue", rabbitmq.QueueName)
	err = consumer.Run(ctx, deliverer.Deliver)
	stop()
	wg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
