package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// Limiter decides whether a request may proceed.
type Limiter interface {
	Allow() bool
}

// NewTokenBucket returns a token bucket limiter. A non-positive rate disables
// limiting and returns nil.
func NewTokenBucket(ratePerSecond float64, burst int) Limiter {
	if ratePerSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(ratePerSecond), burst)
}

// RateLimit rejects requests with 429 once limiter runs dry. A nil limiter
// lets everything through.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded, please retry shortly", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
