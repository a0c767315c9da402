package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/possuite/go-pos-server/session"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyIdentity stores the validated session identity
	ContextKeyIdentity ContextKey = "identity"
	// ContextKeyAccessToken stores the raw bearer token, needed on logout to
	// blacklist the exact token string
	ContextKeyAccessToken ContextKey = "access_token"
)

// RequireAuth is middleware that validates a Bearer access token and attaches
// the resulting identity to the request context. Missing, malformed, expired,
// forged, and blacklisted tokens all produce the same 401.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rawToken, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims := s.sessions.ValidateAccessToken(r.Context(), rawToken)
			if claims == nil {
				writeUnauthorized(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, session.NewIdentity(claims))
			ctx = context.WithValue(ctx, ContextKeyAccessToken, rawToken)
			next(w, r.WithContext(ctx))
		}
	}
}

// IdentityFromContext returns the identity attached by RequireAuth.
func IdentityFromContext(ctx context.Context) (session.Identity, bool) {
	identity, ok := ctx.Value(ContextKeyIdentity).(session.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
