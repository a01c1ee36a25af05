package handlers

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/10mm-gms/blueprint/internal/auth"
	"github.com/10mm-gms/blueprint/internal/messaging"
	"github.com/10mm-gms/blueprint/internal/middleware"
	"github.com/10mm-gms/blueprint/internal/ui/pages"
)

const (
	stateCookieName = "oauth_state"
	stateMaxAge     = 10 * time.Minute
	dashboardPath   = "/admin"
	notifyTimeout   = 5 * time.Second
)

// Login renders the staff sign-in page. Signed-in staff go straight to the
// dashboard.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if middleware.GetSession(r.Context()) != nil {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, pages.AdminLogin(h.site, r.URL.Query().Get("error"), h.google != nil))
}

// LoginStart initiates the Google OAuth flow.
func (h *Handlers) LoginStart(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		loginError(w, r, pages.ErrorNotConfigured)
		return
	}

	state, err := generateState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", zap.Error(err))
		loginError(w, r, pages.ErrorOAuthFailed)
		return
	}

	// Store state in cookie for verification
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthorizeURL(state, h.config.AllowedDomain), http.StatusTemporaryRedirect)
}

// AuthCallback handles the OAuth callback from Google.
func (h *Handlers) AuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	if h.google == nil {
		loginError(w, r, pages.ErrorNotConfigured)
		return
	}

	// Verify state
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil {
		h.logger.Info("missing oauth state cookie")
		loginError(w, r, pages.ErrorInvalidState)
		return
	}
	if subtle.ConstantTimeCompare([]byte(query.Get("state")), []byte(stateCookie.Value)) != 1 {
		h.logger.Info("oauth state mismatch")
		loginError(w, r, pages.ErrorInvalidState)
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// Check for error from Google (e.g. the user pressed cancel)
	if errMsg := query.Get("error"); errMsg != "" {
		h.logger.Info("google oauth error", zap.String("error", errMsg))
		loginError(w, r, pages.ErrorOAuthFailed)
		return
	}

	accessToken, err := h.google.ExchangeCode(ctx, query.Get("code"))
	if err != nil {
		h.logger.Error("failed to exchange code", zap.Error(err))
		loginError(w, r, pages.ErrorOAuthFailed)
		return
	}

	user, err := h.google.GetUser(ctx, accessToken)
	if err != nil {
		h.logger.Error("failed to get google user", zap.Error(err))
		loginError(w, r, pages.ErrorOAuthFailed)
		return
	}

	if !user.EmailVerified || !auth.IsInternalStaff(user.Email, h.config.AllowedDomain) {
		h.logger.Info("rejected non-staff sign in", zap.String("email", user.Email))
		loginError(w, r, pages.ErrorNotStaff)
		return
	}

	session, err := h.sessions.Start(w, &auth.SessionData{
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.Picture,
	})
	if err != nil {
		h.logger.Error("failed to set session", zap.Error(err))
		loginError(w, r, pages.ErrorOAuthFailed)
		return
	}

	h.logger.Info("staff signed in", zap.String("email", user.Email), zap.Stringer("user_id", session.UserID))
	h.notifySignIn(ctx, session)

	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

// notifySignIn posts to the staff chat space. Failures never block sign in.
func (h *Handlers) notifySignIn(ctx context.Context, session *auth.SessionData) {
	if h.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	err := h.notifier.SendChat(ctx, session.Email+" signed in to "+h.site.ProductName)
	if err != nil && !errors.Is(err, messaging.ErrNotConfigured) {
		h.logger.Warn("sign-in chat notification failed", zap.Error(err))
	}
}

// Logout clears the session and redirects to home.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Dashboard renders the admin landing page for the signed-in staff member.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pages.AdminDashboard(h.site, middleware.GetSession(r.Context())))
}

// IssueToken mints an access and refresh token pair for the signed-in staff
// member, for use against the API server.
func (h *Handlers) IssueToken(w http.ResponseWriter, r *http.Request) {
	h.writeTokenPair(w, middleware.GetSession(r.Context()))
}

// writeTokenPair answers with a fresh access and refresh token for session.
// Token responses are never cached.
func (h *Handlers) writeTokenPair(w http.ResponseWriter, session *auth.SessionData) {
	access, err := h.tokens.CreateAccessToken(session, 0)
	if err != nil {
		h.logger.Error("failed to create access token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	refresh, err := h.tokens.CreateRefreshToken(session)
	if err != nil {
		h.logger.Error("failed to create refresh token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(h.config.AccessTokenExpire.Seconds()),
	})
}

func loginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, middleware.LoginPath+"?error="+url.QueryEscape(code), http.StatusSeeOther)
}

// generateState generates a random state string for CSRF protection.
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
