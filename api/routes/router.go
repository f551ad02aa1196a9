package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightstay/booking-backend/api/controllers"
	"github.com/brightstay/booking-backend/api/middleware"
	bookingsvc "github.com/brightstay/booking-backend/internal/booking"
	"github.com/brightstay/booking-backend/pkg/config"
	"github.com/brightstay/booking-backend/pkg/db"
	"github.com/brightstay/booking-backend/pkg/logger"
	"github.com/brightstay/booking-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	bookingService *bookingsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	reservePolicy := middleware.NewRateLimitPolicy(
		"reserve",
		cfg.RateLimit.ReserveWindow,
		cfg.RateLimit.ReserveIPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/bookings", func(r chi.Router) {
		r.With(middleware.RateLimit(reservePolicy, redisClient, logg)).
			Post("/", controllers.ReserveBooking(bookingService, logg))
		r.Get("/{bookingID}", controllers.GetBooking(bookingService, logg))
		r.Post("/{bookingID}/confirm", controllers.ConfirmBooking(bookingService, logg))
		r.Post("/{bookingID}/cancel", controllers.CancelBooking(bookingService, logg))
		r.Post("/{bookingID}/complete", controllers.CompleteBooking(bookingService, logg))
	})

	r.Route("/api/v1/room-types/{roomTypeID}/availability", func(r chi.Router) {
		r.Get("/", controllers.GetAvailability(bookingService, logg))
		r.Put("/", controllers.SeedAvailability(bookingService, logg))
	})

	return r
}
