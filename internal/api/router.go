package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/smileworks/clinic-scheduling/internal/clinic"
)

type RouterConfig struct {
	Service *clinic.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	h := NewHandlers(cfg.Service, cfg.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/slots", h.GetSlots)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", h.CreateBooking)
			r.Get("/", h.ListBookings)
			r.Get("/{id}", h.GetBooking)
			r.Patch("/{id}/status", h.UpdateBookingStatus)
			r.Delete("/{id}", h.DeleteBooking)
		})

		r.Get("/patients", h.ListPatients)
		r.Delete("/patients/{bookingID}", h.DeletePatient)

		r.Route("/dentists", func(r chi.Router) {
			r.Get("/", h.ListDentists)
			r.Post("/", h.CreateDentist)
			r.Patch("/{id}/active", h.SetDentistActive)
		})

		r.Route("/procedures", func(r chi.Router) {
			r.Get("/", h.ListProcedures)
			r.Post("/", h.CreateProcedure)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", h.ListReviews)
			r.Post("/", h.CreateReview)
		})
	})

	return r
}
