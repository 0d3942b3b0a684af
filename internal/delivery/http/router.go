package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vogiaan1904/spacehost/pkg/logger"
)

type RouterConfig struct {
	JWTSecret string
	// Events serves the websocket feed; nil disables the route.
	Events http.Handler
}

func NewRouter(h *HTTPHandler, cfg RouterConfig, l logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.HTTPLogger(l))

	r.Get("/healthz", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.JWTSecret, l))

		if cfg.Events != nil {
			r.Handle("/ws/events", cfg.Events)
		}

		r.Route("/api/v1/space", func(r chi.Router) {
			r.Get("/", h.GetSpace)
			r.Get("/history", h.ListHistory)
			r.Post("/start", h.StartSpace)
			r.Post("/stop", h.StopSpace)
			r.Post("/join", h.JoinSpace)
			r.Post("/leave", h.LeaveSpace)
		})
	})

	return r
}
