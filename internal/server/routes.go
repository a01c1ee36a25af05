package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/10mm-gms/blueprint/internal/auth"
	"github.com/10mm-gms/blueprint/internal/handlers"
	"github.com/10mm-gms/blueprint/internal/middleware"
)

// Server names used in logs, metrics and spans.
const (
	APIServer = "api"
	WebServer = "web"
)

// RouterDeps holds what the routers need beyond the handlers themselves.
type RouterDeps struct {
	Handlers *handlers.Handlers
	Sessions *auth.SessionStore
	Tokens   *auth.TokenIssuer
	Logger   *zap.Logger

	// Tracer provides request spans. Nil disables tracing.
	Tracer trace.TracerProvider

	// Gatherer backs /metrics; Metrics records into the same registry.
	Gatherer prometheus.Gatherer
	Metrics  *middleware.Metrics

	// Limiters are per server. A nil limiter disables rate limiting.
	APILimiter middleware.Limiter
	WebLimiter middleware.Limiter
}

// common installs the middleware both servers share.
func common(r chi.Router, name string, deps RouterDeps, limiter middleware.Limiter) {
	logger := deps.Logger.With(zap.String("server", name))

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing(name, deps.Tracer))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler(name))
	}
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RateLimit(limiter))
}

// NewAPIRouter builds the JSON API served on PORT.
func NewAPIRouter(deps RouterDeps) http.Handler {
	h := deps.Handlers

	r := chi.NewRouter()
	common(r, APIServer, deps, deps.APILimiter)
	r.Use(middleware.CORS)

	r.Get("/health", h.Health)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/config/mobile", h.MobileConfig)
		r.Post("/auth/refresh", h.RefreshToken)
		r.With(middleware.RequireBearer(deps.Tokens)).Get("/me", h.Me)
	})

	r.NotFound(h.APINotFound)
	return r
}

// NewWebRouter builds the server-rendered site served on WEB_PORT.
func NewWebRouter(deps RouterDeps) http.Handler {
	h := deps.Handlers

	r := chi.NewRouter()
	common(r, WebServer, deps, deps.WebLimiter)
	r.Use(middleware.Session(deps.Sessions))

	r.Get("/", h.Home)
	r.Get("/assets/*", h.Asset)
	r.Head("/assets/*", h.Asset)

	// Staff sign in
	r.Get(middleware.LoginPath, h.Login)
	r.Get("/auth/google", h.LoginStart)
	r.Get("/auth/callback", h.AuthCallback)
	r.Get("/admin/logout", h.Logout)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/admin", h.Dashboard)
		r.Post("/admin/token", h.IssueToken)
	})

	r.NotFound(h.NotFound)
	return r
}
