// Package mobileconfig resolves the runtime settings consumed by the mobile
// client. Each setting comes from its EXPO_PUBLIC_ environment variable when
// that is set and non-empty, and from a literal fallback otherwise.
//
// A Runtime is resolved once by the process entrypoint and passed explicitly to
// whatever needs it. It has no setters.
package mobileconfig

import (
	"encoding/json"
	"os"
)

// Environment variable names.
const (
	EnvAllowedDomain         = "EXPO_PUBLIC_ALLOWED_DOMAIN"
	EnvAPIURL                = "EXPO_PUBLIC_API_URL"
	EnvGoogleAndroidClientID = "EXPO_PUBLIC_GOOGLE_ANDROID_CLIENT_ID"
	EnvGoogleIOSClientID     = "EXPO_PUBLIC_GOOGLE_IOS_CLIENT_ID"
	EnvGoogleWebClientID     = "EXPO_PUBLIC_GOOGLE_WEB_CLIENT_ID"
)

// Fallbacks used when the environment does not provide a value.
const (
	DefaultAllowedDomain = "10mm.net"
	DefaultAPIURL        = "http://localhost:8000"
)

// LookupFunc returns the raw value of an environment variable, or "" if unset.
type LookupFunc func(key string) string

// Runtime is the resolved mobile configuration.
type Runtime struct {
	allowedDomain         string
	apiURL                string
	googleAndroidClientID string
	googleIOSClientID     string
	googleWebClientID     string
}

// Resolve builds a Runtime from lookup. A nil lookup yields the defaults.
func Resolve(lookup LookupFunc) Runtime {
	if lookup == nil {
		lookup = func(string) string { return "" }
	}

	return Runtime{
		allowedDomain:         valueOr(lookup, EnvAllowedDomain, DefaultAllowedDomain),
		apiURL:                valueOr(lookup, EnvAPIURL, DefaultAPIURL),
		googleAndroidClientID: valueOr(lookup, EnvGoogleAndroidClientID, ""),
		googleIOSClientID:     valueOr(lookup, EnvGoogleIOSClientID, ""),
		googleWebClientID:     valueOr(lookup, EnvGoogleWebClientID, ""),
	}
}

// FromEnv resolves a Runtime from the process environment.
func FromEnv() Runtime {
	return Resolve(os.Getenv)
}

// Defaults returns the Runtime used when no variable is set.
func Defaults() Runtime {
	return Resolve(nil)
}

func valueOr(lookup LookupFunc, key, fallback string) string {
	if value := lookup(key); value != "" {
		return value
	}
	return fallback
}

// AllowedDomain is the email domain accepted for staff sign-in.
func (r Runtime) AllowedDomain() string { return r.allowedDomain }

// APIURL is the base URL of the backend API.
func (r Runtime) APIURL() string { return r.apiURL }

// GoogleAndroidClientID is the OAuth client id used by the Android app.
func (r Runtime) GoogleAndroidClientID() string { return r.googleAndroidClientID }

// GoogleIOSClientID is the OAuth client id used by the iOS app.
func (r Runtime) GoogleIOSClientID() string { return r.googleIOSClientID }

// GoogleWebClientID is the OAuth client id used by the web build.
func (r Runtime) GoogleWebClientID() string { return r.googleWebClientID }

// Map returns the settings keyed by their client-side names.
func (r Runtime) Map() map[string]string {
	return map[string]string{
		"ALLOWED_DOMAIN":           r.allowedDomain,
		"API_URL":                  r.apiURL,
		"GOOGLE_ANDROID_CLIENT_ID": r.googleAndroidClientID,
		"GOOGLE_IOS_CLIENT_ID":     r.googleIOSClientID,
		"GOOGLE_WEB_CLIENT_ID":     r.googleWebClientID,
	}
}

type runtimeJSON struct {
	AllowedDomain         string `json:"ALLOWED_DOMAIN"`
	APIURL                string `json:"API_URL"`
	GoogleAndroidClientID string `json:"GOOGLE_ANDROID_CLIENT_ID"`
	GoogleIOSClientID     string `json:"GOOGLE_IOS_CLIENT_ID"`
	GoogleWebClientID     string `json:"GOOGLE_WEB_CLIENT_ID"`
}

// MarshalJSON emits the settings under their client-side names, in a fixed order.
func (r Runtime) MarshalJSON() ([]byte, error) {
	return json.Marshal(runtimeJSON{
		AllowedDomain:         r.allowedDomain,
		APIURL:                r.apiURL,
		GoogleAndroidClientID: r.googleAndroidClientID,
		GoogleIOSClientID:     r.googleIOSClientID,
		GoogleWebClientID:     r.googleWebClientID,
	})
}
