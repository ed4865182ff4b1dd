package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventx/internal/delivery/http/controllers"
	"eventx/internal/delivery/http/helpers"
	"eventx/internal/delivery/http/middleware"
	"eventx/internal/domain"
	"eventx/internal/metrics"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Auth    *controllers.AuthController
	Event   *controllers.EventController
	Booking *controllers.BookingController
	Payment *controllers.PaymentController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)
	clubAdmin := func(next http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireClubAdmin(next))
	}

	// Auth
	mux.HandleFunc("POST /auth/login", c.Auth.Login)
	mux.HandleFunc("GET /auth/me", auth(c.Auth.Me))
	mux.HandleFunc("POST /auth/password", auth(c.Auth.ChangePassword))

	// Events
	mux.HandleFunc("GET /events", c.Event.ListEvents)
	mux.HandleFunc("GET /events/mine", clubAdmin(c.Event.ListMyEvents))
	mux.HandleFunc("GET /events/{eventId}", c.Event.GetEvent)
	mux.HandleFunc("POST /events", clubAdmin(c.Event.CreateEvent))
	mux.HandleFunc("PUT /events/{eventId}", clubAdmin(c.Event.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventId}", clubAdmin(c.Event.DeleteEvent))

	// Bookings
	mux.HandleFunc("POST /bookings/event/{eventId}", auth(c.Booking.CreateBooking))
	mux.HandleFunc("GET /bookings/event/{eventId}", clubAdmin(c.Booking.ListEventBookings))
	mux.HandleFunc("GET /bookings/event/{eventId}/stats", clubAdmin(c.Booking.EventBookingStats))
	mux.HandleFunc("GET /bookings/user", auth(c.Booking.ListUserBookings))
	mux.HandleFunc("GET /bookings/{bookingId}", auth(c.Booking.GetBooking))

	// Payments
	mux.HandleFunc("POST /payments/order/{eventId}", auth(c.Payment.CreateOrder))
	mux.HandleFunc("POST /payments/verify/{eventId}", auth(c.Payment.VerifyPayment))

	// Operations
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// Wrap applies the global middleware chain: CORS, request logging, metrics.
func Wrap(mux http.Handler, allowedOrigins []string, logger *slog.Logger) http.Handler {
	return middleware.CORS(allowedOrigins, middleware.LoggingMiddleware(logger, middleware.Metrics(mux)))
}
