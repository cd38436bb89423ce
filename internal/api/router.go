package api

import (
	"farm-delivery-service/internal/api/handlers"
	"farm-delivery-service/internal/platform/metrics"
	"farm-delivery-service/internal/services"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Session *services.Controller
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger, d.Metrics))
	r.Use(middleware.Recoverer)

	h := &handlers.SessionHandler{Session: d.Session, Logger: d.Logger}

	r.Get("/health", handlers.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/orders", h.ListOrders)
		api.Post("/optimize-route", h.OptimizeRoute)
		api.Post("/route/reset", h.ResetRoute)

		api.Post("/track-loading", h.TrackLoading)
		api.Post("/scan", h.Scan)
		api.Get("/loading-status", h.LoadingStatus)

		api.Get("/session", h.GetSession)
		api.Post("/session/reset", h.ResetSession)

		api.Get("/export/loading-list.csv", h.ExportLoadingList)
		api.Get("/export/route-sheet.csv", h.ExportRouteSheet)
	})

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	return r
}
