package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/delivery/http/handler"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/delivery/http/middleware"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/monitoring"
)

func New(h *handler.Handler, m *monitoring.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(5 * time.Minute))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)
		r.Post("/pipeline/run", h.HandleRunBatch)
		r.Get("/pipeline/stats", h.HandleGetStats)
		r.Get("/pipeline/mode", h.HandleGetMode)
		r.Put("/pipeline/mode", h.HandleSetMode)
		r.Get("/budget", h.HandleGetBudget)
		r.Put("/budget/limit", h.HandleSetLimit)
	})

	return r
}
