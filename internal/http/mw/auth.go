// Package mw contains HTTP middleware for the courseloop-api.
package mw

import (
	"context"
	"net/http"
	"strings"

	"github.com/courseloop/courseloop-api/internal/auth"
	"github.com/courseloop/courseloop-api/internal/models"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserClaimsKey is the context key for user claims.
	UserClaimsKey ContextKey = "user_claims"
)

// UserClaims holds the authenticated user's identity for the request.
type UserClaims struct {
	UserID   string
	Username string
	Email    string
	Role     models.Role
}

// TokenVerifier validates an access token. Implemented by the auth service.
type TokenVerifier interface {
	VerifyAccess(tokenString string) (*auth.Claims, error)
}

// Auth returns a middleware that requires a valid bearer access token and
// attaches the user's claims to the request context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, &UserClaims{
				UserID:   claims.Subject,
				Username: claims.Username,
				Email:    claims.Email,
				Role:     claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns a middleware that refuses requests from users whose
// role is not in the allowed set. Must be applied after Auth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserClaims(r.Context())
			if claims == nil {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !allowed[claims.Role] {
				writeAuthError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserClaims retrieves user claims from the context, or nil.
func GetUserClaims(ctx context.Context) *UserClaims {
	claims, _ := ctx.Value(UserClaimsKey).(*UserClaims)
	return claims
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
