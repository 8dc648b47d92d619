package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Fantasim/tronxfer/internal/api/handlers"
	"github.com/Fantasim/tronxfer/internal/api/middleware"
	"github.com/Fantasim/tronxfer/internal/pipeline"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Deps are the run components the status server reads from.
type Deps struct {
	Status   handlers.StatusSource
	Hub      *pipeline.Hub
	Gatherer prometheus.Gatherer
	RunID    string
}

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogging)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.HealthHandler(Version, deps.RunID))
		r.Get("/status", handlers.StatusHandler(deps.Status))
		r.Get("/events", handlers.EventsSSE(deps.Hub, deps.Status))
	})

	if deps.Gatherer != nil {
		r.Method("GET", "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	}

	slog.Info("router initialized",
		"middleware", []string{"requestLogging"},
		"metrics", deps.Gatherer != nil,
	)

	return r
}
