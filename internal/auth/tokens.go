package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token errors
var (
	ErrInvalidToken         = errors.New("invalid token")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)

// Token types carried in the "typ" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the payload of tokens issued for staff members.
type Claims struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HMAC JWTs with a shared secret.
type TokenIssuer struct {
	secret        []byte
	method        jwt.SigningMethod
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewTokenIssuer creates an issuer. algorithm must be one of HS256, HS384 or HS512.
func NewTokenIssuer(secret, algorithm string, accessExpiry, refreshExpiry time.Duration) (*TokenIssuer, error) {
	method, err := hmacMethod(algorithm)
	if err != nil {
		return nil, err
	}
	if secret == "" {
		return nil, fmt.Errorf("token secret must not be empty")
	}

	return &TokenIssuer{
		secret:        []byte(secret),
		method:        method,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}, nil
}

func hmacMethod(algorithm string) (jwt.SigningMethod, error) {
	switch strings.ToUpper(algorithm) {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}
}

// CreateAccessToken signs an access token for the session. A zero expiresIn
// uses the issuer's configured access token lifetime.
func (i *TokenIssuer) CreateAccessToken(session *SessionData, expiresIn time.Duration) (string, error) {
	if expiresIn <= 0 {
		expiresIn = i.accessExpiry
	}
	return i.sign(session, TokenTypeAccess, expiresIn)
}

// CreateRefreshToken signs a long-lived refresh token for the session.
func (i *TokenIssuer) CreateRefreshToken(session *SessionData) (string, error) {
	return i.sign(session, TokenTypeRefresh, i.refreshExpiry)
}

func (i *TokenIssuer) sign(session *SessionData, tokenType string, expiresIn time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		Email:     session.Email,
		Name:      session.Name,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}

	token := jwt.NewWithClaims(i.method, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// DecodeAccessToken verifies signature, algorithm and expiry and returns the claims.
// Refresh tokens are rejected.
func (i *TokenIssuer) DecodeAccessToken(raw string) (*Claims, error) {
	claims, err := i.decode(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	return claims, nil
}

// DecodeRefreshToken verifies a refresh token.
func (i *TokenIssuer) DecodeRefreshToken(raw string) (*Claims, error) {
	claims, err := i.decode(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	return claims, nil
}

func (i *TokenIssuer) decode(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &claims, nil
}
