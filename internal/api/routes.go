package api

import (
	"net/http"
	"time"

	"multibagger/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if cfg.HTTP.RequestTimeoutSeconds > 0 {
		r.Use(middleware.Timeout(time.Duration(cfg.HTTP.RequestTimeoutSeconds) * time.Second))
	}
	r.Use(CORSMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(MetricsMiddleware)
	r.Use(LoggingMiddleware)

	r.Get("/", h.HandleIndex)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Get("/state", h.HandleState)

		r.Post("/analysis", h.HandleStartAnalysis)
		r.Post("/sample", h.HandleLoadSample)
		r.Delete("/sample", h.HandleClearSample)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/", h.HandleGetRecommendations)
			r.Post("/{ticker}/expand", h.HandleToggleExpand)
			r.Post("/{ticker}/select", h.HandleToggleSelect)
		})
		r.Delete("/selection", h.HandleClearSelection)

		r.Post("/alerts", h.HandleSendAlert)
		r.Post("/alerts/test", h.HandleTestConnection)

		r.Get("/history", h.HandleGetHistory)

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", h.HandleGetSchedule)
			r.Post("/refresh", h.HandleRefreshSchedule)
			r.Post("/toggle", h.HandleToggleSchedule)
			r.Post("/trigger", h.HandleTriggerSchedule)
			r.Get("/logs", h.HandleGetScheduleLogs)
		})

		r.Get("/settings", h.HandleGetSettings)
		r.Put("/settings", h.HandleUpdateSettings)
	})

	return r
}
