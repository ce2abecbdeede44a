package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Appointments AppointmentService
	Patients     PatientService
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	JWTSecret    string
	Env          string
	Version      string
	Logger       zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints stay public
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Everything else requires staff credentials
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return AuthMiddleware(cfg.JWTSecret, next)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", createAppointmentHandler(cfg.Appointments, cfg.Logger))
			r.Get("/", listAppointmentsHandler(cfg.Appointments, cfg.Logger))
			r.Patch("/{id}/status", updateAppointmentStatusHandler(cfg.Appointments, cfg.Logger))
			r.Delete("/{id}", deleteAppointmentHandler(cfg.Appointments, cfg.Logger))
		})

		r.Route("/patients", func(r chi.Router) {
			r.Post("/", createPatientHandler(cfg.Patients, cfg.Logger))
			r.Get("/", listPatientsHandler(cfg.Patients, cfg.Logger))
			r.Get("/{id}", getPatientHandler(cfg.Patients, cfg.Logger))
			r.Put("/{id}", updatePatientHandler(cfg.Patients, cfg.Logger))
			r.Delete("/{id}", deletePatientHandler(cfg.Patients, cfg.Logger))
			r.Post("/{id}/documents", addDocumentHandler(cfg.Patients, cfg.Logger))
			r.Delete("/{id}/documents", removeDocumentHandler(cfg.Patients, cfg.Logger))
		})
	})

	return r
}
