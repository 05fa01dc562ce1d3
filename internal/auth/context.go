package auth

import (
	"context"
	"net/http"
)

type contextKey string

const claimsKey contextKey = "calispro-auth-claims"

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

// UserIDFromContext returns an empty string for unauthenticated contexts.
func UserIDFromContext(ctx context.Context) string {
	claims, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return claims.UserID
}

// RequireClaims reads the caller's claims, answering 401 when absent.
func RequireClaims(w http.ResponseWriter, r *http.Request) (*Claims, bool) {
	claims, ok := FromContext(r.Context())
	if !ok || claims.UserID == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}
