package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"dopesheet/interfaces/http/rest/handlers"
	"dopesheet/interfaces/http/rest/middleware"
	pkgerrors "dopesheet/pkg/errors"
	"dopesheet/pkg/observability"
	"dopesheet/pkg/ratelimit"
)

// Options configures the router
type Options struct {
	AllowedOrigins []string
	CORSMaxAge     int
	MetricsEnabled bool
	MetricsPath    string
	// RateLimiter limits /api/v1 requests per client, nil for no limit
	RateLimiter ratelimit.Limiter
}

// Router creates and configures the HTTP router
type Router struct {
	handler *handlers.DopeSheetHandler
	metrics *observability.Collector
	opts    Options
	logger  *zap.Logger
	ready   func() bool
}

// NewRouter creates a new router instance
func NewRouter(
	handler *handlers.DopeSheetHandler,
	metrics *observability.Collector,
	opts Options,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	return &Router{
		handler: handler,
		metrics: metrics,
		opts:    opts,
		logger:  logger,
		ready:   func() bool { return true },
	}
}

// SetReadiness replaces the readiness check
func (rt *Router) SetReadiness(ready func() bool) {
	rt.ready = ready
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Tracing())
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         rt.opts.CORSMaxAge,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.MetricsEnabled && rt.metrics != nil {
		router.Handle(rt.opts.MetricsPath, rt.metrics.Handler())
	}

	h := rt.handler
	router.Route("/api/v1", func(r chi.Router) {
		if rt.opts.RateLimiter != nil {
			r.Use(middleware.RateLimit(rt.opts.RateLimiter, pkgerrors.NewErrorHandler(rt.logger, false)))
		}
		r.Use(chimiddleware.AllowContentType("application/json"))

		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", h.ListRows)
			r.Get("/{id}/range", h.GetRange)
			r.Post("/rename", h.RenameNode)
		})

		r.Route("/selection", func(r chi.Router) {
			r.Get("/", h.GetSelection)
			r.Post("/", h.MakeSelection)
			r.Delete("/", h.ClearSelection)
			r.Post("/all", h.SelectAll)
		})

		r.Route("/keys", func(r chi.Router) {
			r.Post("/move", h.MoveKeys)
			r.Post("/delete", h.DeleteKeys)
			r.Post("/copy", h.CopyKeys)
			r.Post("/destinations", h.SetDestinations)
			r.Post("/paste", h.PasteKeys)
			r.Post("/interpolation", h.SetInterpolation)
			r.Post("/scale", h.ScaleKeys)
		})

		r.Route("/readers/{id}", func(r chi.Router) {
			r.Post("/trim-left", h.TrimLeft)
			r.Post("/trim-right", h.TrimRight)
			r.Post("/slip", h.Slip)
		})

		r.Get("/history", h.History)
		r.Post("/undo", h.Undo)
		r.Post("/redo", h.Redo)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !rt.ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
