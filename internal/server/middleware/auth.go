// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonathan/cojournalist/internal/types"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const (
	identityKey ContextKey = "identity"
	tokenKey    ContextKey = "token"
)

// TokenValidator validates bearer tokens issued by the identity provider.
type TokenValidator interface {
	ValidateToken(tokenString string) (IdentityGetter, error)
}

// IdentityGetter extracts the caller identity from token claims.
type IdentityGetter interface {
	GetIdentity() types.Identity
}

// Identify attaches the caller identity and raw token to the request context
// when a valid bearer token is present. Requests without one pass through
// anonymously.
func Identify(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			identity := claims.GetIdentity()
			if identity.ExternalID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests that carry no identity with 401.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := GetIdentity(r); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware validates the bearer token and rejects anonymous requests.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	identify := Identify(validator)
	return func(next http.Handler) http.Handler {
		return identify(RequireIdentity(next))
	}
}

// bearerToken returns the token of a "Bearer <token>" Authorization header.
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetIdentity extracts the authenticated identity from the request context.
func GetIdentity(r *http.Request) (types.Identity, error) {
	identity, ok := r.Context().Value(identityKey).(types.Identity)
	if !ok {
		return types.Identity{}, fmt.Errorf("identity not found in request context")
	}
	return identity, nil
}

// GetToken returns the raw bearer token of an identified request.
func GetToken(r *http.Request) string {
	token, _ := r.Context().Value(tokenKey).(string)
	return token
}

// WithIdentity returns ctx carrying identity, for tests and internal callers.
func WithIdentity(ctx context.Context, identity types.Identity, token string) context.Context {
	ctx = context.WithValue(ctx, identityKey, identity)
	return context.WithValue(ctx, tokenKey, token)
}
