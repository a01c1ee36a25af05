package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/10mm-gms/blueprint/internal/auth"
	"github.com/10mm-gms/blueprint/internal/middleware"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status string `json:"status"`
}

// Health reports liveness. When a database is configured it must answer a
// ping for the service to count as healthy.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := h.db.Health(ctx); err != nil {
			h.logger.Error("database health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// MobileConfig returns the runtime settings the mobile client starts with.
func (h *Handlers) MobileConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mobile)
}

type meResponse struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Me returns the identity carried by the caller's bearer token.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	resp := meResponse{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.UTC()
	}
	writeJSON(w, http.StatusOK, resp)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken trades a refresh token for a new access and refresh token pair.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	claims, err := h.tokens.DecodeRefreshToken(req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	// Refresh is refused once the account is outside the staff domain.
	if !auth.IsInternalStaff(claims.Email, h.config.AllowedDomain) {
		writeError(w, http.StatusForbidden, "not an internal staff account")
		return
	}

	session := &auth.SessionData{Email: claims.Email, Name: claims.Name}
	if id, err := uuid.Parse(claims.Subject); err == nil {
		session.UserID = id
	}

	h.writeTokenPair(w, session)
}

// APINotFound answers unmatched API routes with a JSON 404.
func (h *Handlers) APINotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not Found")
}
