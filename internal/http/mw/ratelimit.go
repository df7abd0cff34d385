package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// RequestsPerMinute is the per-user request budget. 0 disables limiting.
	RequestsPerMinute int
}

// DefaultRateLimitConfig returns the default per-user budget.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 120}
}

// RateLimitByUser returns a middleware that rate limits by user ID, falling
// back to the client IP for unauthenticated requests. Should be applied
// after the Auth middleware on authenticated routes.
func RateLimitByUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RequestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := httprate.NewRateLimiter(
		cfg.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			claims := GetUserClaims(r.Context())
			if claims == nil || claims.UserID == "" {
				return httprate.KeyByIP(r)
			}
			return "user:" + claims.UserID, nil
		}),
	)
	return limiter.Handler
}
