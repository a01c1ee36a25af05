package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/10mm-gms/blueprint/internal/assets"
	"github.com/10mm-gms/blueprint/internal/auth"
	"github.com/10mm-gms/blueprint/internal/config"
	"github.com/10mm-gms/blueprint/internal/mobileconfig"
	"github.com/10mm-gms/blueprint/internal/ui/pages"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ChatNotifier posts a short message to the staff chat space.
type ChatNotifier interface {
	SendChat(ctx context.Context, text string) error
}

// Deps lists everything the handlers need. Google and DB may be nil.
type Deps struct {
	Config   *config.Config
	DB       HealthChecker
	Sessions *auth.SessionStore
	Google   *auth.GoogleOAuth
	Tokens   *auth.TokenIssuer
	Notifier ChatNotifier
	Assets   assets.Store
	Mobile   mobileconfig.Runtime
	Logger   *zap.Logger
}

// Handlers contains all HTTP handler dependencies.
type Handlers struct {
	config   *config.Config
	db       HealthChecker
	sessions *auth.SessionStore
	google   *auth.GoogleOAuth
	tokens   *auth.TokenIssuer
	notifier ChatNotifier
	assets   assets.Store
	mobile   mobileconfig.Runtime
	site     pages.Site
	logger   *zap.Logger
}

// New creates a new Handlers instance with all dependencies.
func New(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handlers{
		config:   deps.Config,
		db:       deps.DB,
		sessions: deps.Sessions,
		google:   deps.Google,
		tokens:   deps.Tokens,
		notifier: deps.Notifier,
		assets:   deps.Assets,
		mobile:   deps.Mobile,
		site: pages.Site{
			ProductName:   deps.Config.ProductName,
			AllowedDomain: deps.Config.AllowedDomain,
			Layout:        deps.Config.Layout,
		},
		logger: logger.Named("handlers"),
	}
}

// Site returns the values every rendered page is built from.
func (h *Handlers) Site() pages.Site {
	return h.site
}
