// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/service"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// ClaimsKey is the context key for verified access token claims.
	ClaimsKey ContextKey = "claims"
	// UserIDKey is the context key for the acting user id.
	UserIDKey ContextKey = "user_id"
)

// UserIDHeader lets trusted frontends name the acting user without a token.
const UserIDHeader = "X-User-Id"

// TokenValidator verifies access tokens.
type TokenValidator interface {
	ValidateAccessToken(token string) (*service.Claims, error)
}

// Authenticate attaches the caller's identity to the request context. A valid
// Bearer token wins over the X-User-Id header. Authentication is optional:
// requests without a usable token continue anonymously, and a rejected token
// is not an error by itself.
func Authenticate(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if token, ok := bearerToken(r); ok && v != nil {
				if claims, err := v.ValidateAccessToken(token); err == nil {
					ctx = context.WithValue(ctx, ClaimsKey, claims)
					ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
				}
			}
			if GetUserID(ctx) == "" {
				if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
					ctx = context.WithValue(ctx, UserIDKey, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireToken rejects requests that did not present a valid access token.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetClaims(r.Context()) == nil {
			writeError(w, apperr.E(apperr.KindAuth, "authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetUserID gets user ID from context.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}

// GetClaims returns the verified token claims, or nil for requests without one.
func GetClaims(ctx context.Context) *service.Claims {
	if v, ok := ctx.Value(ClaimsKey).(*service.Claims); ok {
		return v
	}
	return nil
}

// WithUserID returns a copy of ctx acting as userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
