package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// SessionCookieName is the cookie holding the encoded staff session.
const SessionCookieName = "blueprint_session"

// Session errors. Anything other than ErrNoSession means the browser holds a
// cookie that should be cleared.
var (
	ErrNoSession      = errors.New("no session")
	ErrInvalidSession = errors.New("invalid session")
	ErrSessionExpired = errors.New("session expired")
	ErrNotStaff       = errors.New("email is outside the staff domain")
)

// SessionData is one signed-in staff session. ID changes on every sign in;
// UserID is derived from the email and stays stable.
type SessionData struct {
	ID        uuid.UUID `json:"sid"`
	UserID    uuid.UUID `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// SessionOptions configures a SessionStore.
type SessionOptions struct {
	MaxAge        time.Duration
	Secure        bool
	AllowedDomain string

	// Now defaults to time.Now.
	Now func() time.Time
}

// SessionStore issues and verifies staff session cookies. A session is only
// honoured while its email remains inside AllowedDomain, so narrowing the
// domain signs out everyone outside it on their next request.
type SessionStore struct {
	codec  *securecookie.SecureCookie
	opts   SessionOptions
	maxAge int
}

// NewSessionStore creates a store keyed by secret, which must be at least
// 64 bytes: the first 32 sign the cookie and the next 32 encrypt it.
func NewSessionStore(secret string, opts SessionOptions) (*SessionStore, error) {
	if len(secret) < 64 {
		return nil, fmt.Errorf("session secret must be at least 64 bytes, got %d", len(secret))
	}
	if opts.MaxAge <= 0 {
		return nil, errors.New("session max age must be positive")
	}
	if opts.AllowedDomain == "" {
		return nil, errors.New("session store needs an allowed staff domain")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	codec := securecookie.New([]byte(secret[:32]), []byte(secret[32:64]))
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(opts.MaxAge.Seconds()))

	return &SessionStore{
		codec:  codec,
		opts:   opts,
		maxAge: int(opts.MaxAge.Seconds()),
	}, nil
}

// Start signs in profile's owner with a brand new session, replacing any
// cookie the browser already holds. Only Email, Name and AvatarURL are taken
// from profile; the ids and timestamps are always fresh.
func (s *SessionStore) Start(w http.ResponseWriter, profile *SessionData) (*SessionData, error) {
	if !IsInternalStaff(profile.Email, s.opts.AllowedDomain) {
		return nil, ErrNotStaff
	}

	now := s.opts.Now().UTC()
	session := &SessionData{
		ID:        uuid.New(),
		UserID:    StaffUserID(profile.Email),
		Email:     profile.Email,
		Name:      profile.Name,
		AvatarURL: profile.AvatarURL,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.MaxAge),
	}

	encoded, err := s.codec.Encode(SessionCookieName, session)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	http.SetCookie(w, s.cookie(encoded, s.maxAge))
	return session, nil
}

// Get returns the session carried by r.
func (s *SessionStore) Get(r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	var session SessionData
	if err := s.codec.Decode(SessionCookieName, cookie.Value, &session); err != nil {
		return nil, ErrInvalidSession
	}

	switch {
	case session.ID == uuid.Nil || session.UserID != StaffUserID(session.Email):
		return nil, ErrInvalidSession
	case !s.opts.Now().Before(session.ExpiresAt):
		return nil, ErrSessionExpired
	case !IsInternalStaff(session.Email, s.opts.AllowedDomain):
		return nil, ErrNotStaff
	}
	return &session, nil
}

// Clear removes the session cookie.
func (s *SessionStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", -1))
}

func (s *SessionStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// StaffUserID derives a stable user id from an email address, so the same
// staff member gets the same id across sessions without a user table.
func StaffUserID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email))
}
