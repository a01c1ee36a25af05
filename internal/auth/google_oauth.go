package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Google OAuth endpoints.
const (
	GoogleAuthorizeURL = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenURL     = "https://oauth2.googleapis.com/token"
	GoogleUserInfoURL  = "https://openidconnect.googleapis.com/v1/userinfo"
)

// DefaultGoogleScopes are requested for staff sign-in.
var DefaultGoogleScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// GoogleOAuth handles Google OAuth authentication.
type GoogleOAuth struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string

	AuthorizeEndpoint string
	TokenEndpoint     string
	UserInfoEndpoint  string

	httpClient *http.Client
}

// GoogleUser is the OpenID Connect userinfo profile.
type GoogleUser struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	HostedDomain  string `json:"hd"`
}

// GoogleTokenResponse represents the token exchange response.
type GoogleTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	IDToken     string `json:"id_token"`
	Scope       string `json:"scope"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// NewGoogleOAuth creates a new Google OAuth client.
func NewGoogleOAuth(clientID, clientSecret, callbackURL string) *GoogleOAuth {
	return &GoogleOAuth{
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		CallbackURL:       callbackURL,
		Scopes:            DefaultGoogleScopes,
		AuthorizeEndpoint: GoogleAuthorizeURL,
		TokenEndpoint:     GoogleTokenURL,
		UserInfoEndpoint:  GoogleUserInfoURL,
		httpClient:        &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthorizeURL returns the Google OAuth authorization URL. hostedDomain, when
// set, asks Google to preselect accounts from that Workspace domain.
func (g *GoogleOAuth) AuthorizeURL(state, hostedDomain string) string {
	params := url.Values{
		"client_id":     {g.ClientID},
		"redirect_uri":  {g.CallbackURL},
		"response_type": {"code"},
		"scope":         {strings.Join(g.Scopes, " ")},
		"state":         {state},
		"prompt":        {"select_account"},
	}
	if hostedDomain != "" {
		params.Set("hd", hostedDomain)
	}
	return g.AuthorizeEndpoint + "?" + params.Encode()
}

// ExchangeCode exchanges the authorization code for an access token.
func (g *GoogleOAuth) ExchangeCode(ctx context.Context, code string) (string, error) {
	data := url.Values{
		"client_id":     {g.ClientID},
		"client_secret": {g.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {g.CallbackURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.TokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var token GoogleTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("decode token response (status %d): %w", resp.StatusCode, err)
	}

	if token.Error != "" {
		return "", fmt.Errorf("google oauth error: %s - %s", token.Error, token.ErrorDesc)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("google oauth: empty access token (status %d)", resp.StatusCode)
	}

	return token.AccessToken, nil
}

// GetUser fetches the authenticated user's profile.
func (g *GoogleOAuth) GetUser(ctx context.Context, accessToken string) (*GoogleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.UserInfoEndpoint, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("google userinfo error: %s", string(body))
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}
