package server

import (
	"net/http"

	"github.com/bbernstein/shiptracker/internal/api"
	"github.com/bbernstein/shiptracker/internal/config"
	"github.com/bbernstein/shiptracker/internal/metrics"
	"github.com/bbernstein/shiptracker/internal/tracker"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the service into the HTTP routes.
func NewRouter(svc *tracker.Service, cfg *config.Config) http.Handler {
	h := &handlers{svc: svc}
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(metrics.Middleware(routePattern))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{api.HeaderRefreshInterval, "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", h.info)
	r.Get("/healthz", h.health)
	r.Get("/status", h.status)
	r.Handle("/metrics", metrics.Handler())

	// routes that may reach the upstream
	r.Group(func(r chi.Router) {
		r.Use(rateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Get("/webhook", h.display)
		r.Get("/display.bmp", h.display)
		r.Get("/debug", h.debug)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusNotFound, api.MsgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, api.MsgMethodNotAllowed)
	})

	return r
}
