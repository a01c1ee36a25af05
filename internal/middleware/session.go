package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/10mm-gms/blueprint/internal/auth"
)

type contextKey string

// Context keys
const (
	SessionContextKey contextKey = "session"
	ClaimsContextKey  contextKey = "claims"
)

// Session returns a middleware that loads the session into the request context.
// A cookie the store rejects (tampered, expired, or no longer staff) is cleared.
func Session(store *auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := store.Get(r)
			switch {
			case err == nil:
				r = r.WithContext(WithSession(r.Context(), session))
			case !errors.Is(err, auth.ErrNoSession):
				store.Clear(w)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetSession retrieves the session from context.
func GetSession(ctx context.Context) *auth.SessionData {
	session, ok := ctx.Value(SessionContextKey).(*auth.SessionData)
	if !ok {
		return nil
	}
	return session
}

// WithSession returns ctx carrying session. Used by tests and handlers that
// establish a session mid-request.
func WithSession(ctx context.Context, session *auth.SessionData) context.Context {
	return context.WithValue(ctx, SessionContextKey, session)
}

// GetClaims retrieves verified token claims from context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}
