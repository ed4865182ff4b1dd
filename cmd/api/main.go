// @title EventX API
// @version 1.0
// @description Campus event listing, booking, and payment API.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"eventx/config"
	_ "eventx/docs"
	"eventx/internal/adapters/auth"
	"eventx/internal/adapters/cloudinary"
	"eventx/internal/adapters/email"
	"eventx/internal/adapters/excel"
	"eventx/internal/adapters/rabbitmq"
	"eventx/internal/adapters/razorpay"
	httpdelivery "eventx/internal/delivery/http"
	"eventx/internal/delivery/http/controllers"
	"eventx/internal/domain"
	"eventx/internal/repository/postgres"
	"eventx/internal/repository/redis"
	"eventx/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := config.NewLogger("eventx-api")
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
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
	if err := postgres.Migrate(ctx, db, logger); err != nil {
		return err
	}

	userRepo := postgres.NewUserRepository(db)
	clubRepo := postgres.NewClubRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	orderRepo := postgres.NewPaymentOrderRepository(db)

	uploads, err := newUploadGuard(ctx, cfg, logger)
	if err != nil {
		return err
	}
	images, err := cloudinary.NewImageHost(cfg.CloudinaryURL, logger)
	if err != nil {
		return err
	}
	gateway := razorpay.NewGateway(cfg.Payment.KeyID, cfg.Payment.KeySecret, logger)

	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	guard := services.NewDuplicateGuard(bookingRepo)
	manager := services.NewBookingManager(eventRepo, bookingRepo, guard, logger)

	authService := services.NewAuthService(userRepo, clubRepo, auth.NewBcryptHasher(bcrypt.DefaultCost), auth.NewJWTIssuer(cfg.JWTSecret), cfg.JWTExpiry)
	eventService := services.NewEventService(eventRepo, images, uploads, logger, cfg.RequestTimeout)
	bookingService := services.NewBookingService(eventRepo, bookingRepo, manager, notifier, cfg.RequestTimeout)
	paymentService := services.NewPaymentService(eventRepo, orderRepo, manager, guard, gateway, notifier, cfg.Payment.Currency, logger, cfg.RequestTimeout)

	expose := cfg.IsDevelopment()
	mux := httpdelivery.NewRouter(httpdelivery.Controllers{
		Auth:    controllers.NewAuthController(logger, authService, expose),
		Event:   controllers.NewEventController(logger, eventService, expose),
		Booking: controllers.NewBookingController(logger, bookingService, excel.NewBookingExporter(), expose),
		Payment: controllers.NewPaymentController(logger, paymentService, expose),
	}, auth.NewJWTVerifier(cfg.JWTSecret), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpdelivery.Wrap(mux, cfg.CORSAllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newUploadGuard prefers redis so markers are shared across instances.
func newUploadGuard(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.UploadGuard, error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set; upload de-duplication is per instance")
		return services.NewMemoryUploadGuard(ctx, cfg.UploadDedupTTL), nil
	}
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewUploadGuard(client, cfg.UploadDedupTTL), nil
}

// newNotifier publishes to the notification queue when RABBITMQ_URL is set
// and otherwise sends emails from this process.
func newNotifier(cfg *config.Config, logger *slog.Logger) (domain.Notifier, func(), error) {
	if cfg.RabbitURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return services.NewQueueNotifier(publisher, logger), publisher.Close, nil
	}

	logger.Warn("RABBITMQ_URL not set; booking emails are sent in-process without retry")
	emails, err := newEmailService(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	n := services.NewInProcessNotifier(services.NewNotificationDeliverer(emails), cfg.RequestTimeout, logger)
	return n, n.Wait, nil
}

func newEmailService(cfg *config.Config, logger *slog.Logger) (domain.EmailService, error) {
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
		return nil, err
	}
	return services.NewEmailService(mailer, email.NewTemplateRenderer(), logger), nil
}
