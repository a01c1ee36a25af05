package server

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/10mm-gms/blueprint/internal/assets"
	"github.com/10mm-gms/blueprint/internal/auth"
	"github.com/10mm-gms/blueprint/internal/config"
	"github.com/10mm-gms/blueprint/internal/database"
	"github.com/10mm-gms/blueprint/internal/handlers"
	"github.com/10mm-gms/blueprint/internal/messaging"
	"github.com/10mm-gms/blueprint/internal/middleware"
	"github.com/10mm-gms/blueprint/internal/mobileconfig"
	"github.com/10mm-gms/blueprint/internal/telemetry"
)

const telemetryShutdownTimeout = 5 * time.Second

// App encapsulates the application dependencies and HTTP servers.
type App struct {
	Server   *Server
	DB       *database.DB
	Notifier *messaging.Notifier
	Registry *prometheus.Registry
	Tracer   *sdktrace.TracerProvider

	handlers *handlers.Handlers
	logger   *zap.Logger
}

// NewApp initializes every component from cfg. The database is only opened
// when DATABASE_URL is set; Google sign in only when a client is configured.
func NewApp(ctx context.Context, cfg *config.Config, mobile mobileconfig.Runtime, logger *zap.Logger) (*App, error) {
	var db *database.DB
	if cfg.DatabaseURL != "" {
		var err error
		if db, err = database.New(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		logger.Info("database connected")
	}

	app, err := newApp(ctx, cfg, db, mobile, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, cfg *config.Config, db *database.DB, mobile mobileconfig.Runtime, logger *zap.Logger) (*App, error) {
	sessions, err := auth.NewSessionStore(cfg.SessionSecret, auth.SessionOptions{
		MaxAge:        cfg.SessionMaxAge,
		Secure:        cfg.IsProduction(),
		AllowedDomain: cfg.AllowedDomain,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.SecretKey, cfg.JWTAlgorithm, cfg.AccessTokenExpire, cfg.RefreshTokenExpire)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	var google *auth.GoogleOAuth
	if cfg.GoogleOAuthConfigured() {
		google = auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	} else {
		logger.Info("google sign in disabled: GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}

	store, err := newAssetStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	notifier := messaging.NewNotifier(messaging.OptionsFromConfig(cfg), logger)

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Options{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	}, logger)
	if err != nil {
		return nil, err
	}

	deps := handlers.Deps{
		Config:   cfg,
		Sessions: sessions,
		Google:   google,
		Tokens:   tokens,
		Notifier: notifier,
		Assets:   store,
		Mobile:   mobile,
		Logger:   logger,
	}
	if db != nil {
		deps.DB = db
	}
	h := handlers.New(deps)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	routes := RouterDeps{
		Handlers:   h,
		Sessions:   sessions,
		Tokens:     tokens,
		Logger:     logger,
		Tracer:     tracer,
		Gatherer:   registry,
		Metrics:    middleware.NewMetrics(registry),
		APILimiter: middleware.NewTokenBucket(cfg.RateLimitRPS, cfg.RateLimitBurst),
		WebLimiter: middleware.NewTokenBucket(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	return &App{
		Server:   New(cfg, NewAPIRouter(routes), NewWebRouter(routes), logger),
		DB:       db,
		Notifier: notifier,
		Registry: registry,
		Tracer:   tracer,
		handlers: h,
		logger:   logger,
	}, nil
}

// newAssetStore serves from S3 when a bucket is configured, falling back to
// the embedded assets for anything the bucket lacks.
func newAssetStore(ctx context.Context, cfg *config.Config) (assets.Store, error) {
	embedded := assets.NewEmbeddedStore()
	if cfg.AssetsS3Bucket == "" {
		return embedded, nil
	}

	remote, err := assets.NewS3Store(ctx, cfg.AssetsS3Bucket, cfg.AssetsS3Prefix, cfg.AssetsS3Region)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize asset bucket: %w", err)
	}
	return assets.Chain(remote, embedded), nil
}

// Run serves until ctx is cancelled, then flushes pending spans and releases
// the database.
func (a *App) Run(ctx context.Context) error {
	defer a.DB.Close()
	defer a.shutdownTracer()

	a.logger.Info("starting servers",
		zap.String("api_addr", a.Server.api.Addr),
		zap.String("web_addr", a.Server.web.Addr),
	)
	return a.Server.Run(ctx)
}

func (a *App) shutdownTracer() {
	if a.Tracer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := a.Tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("failed to flush traces", zap.Error(err))
	}
}
