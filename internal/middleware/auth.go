package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/2beens/calispro/internal/auth"
	"github.com/2beens/calispro/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type tokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type revocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthMiddlewareHandler struct {
	tokens               tokenParser
	revocations          revocationChecker
	allowedPaths         map[string]string // path -> method
	allowedPathsPrefixes []string          // GET only
}

// NewAuthMiddlewareHandler builds the bearer token check. revocations may be nil.
func NewAuthMiddlewareHandler(
	tokens tokenParser,
	revocations revocationChecker,
) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		tokens:      tokens,
		revocations: revocations,
		allowedPaths: map[string]string{
			"/":                  http.MethodGet,
			"/version":           http.MethodGet,
			"/api/quotes/random": http.MethodGet,

			"/api/auth/signup": http.MethodPost,
			"/api/auth/login":  http.MethodPost,

			// catalog reference data
			"/api/exercises": http.MethodGet,
			"/api/skills":    http.MethodGet,
		},
		allowedPathsPrefixes: []string{
			"/api/exercises/",
			"/api/skills/",
		},
	}
}

func (h *AuthMiddlewareHandler) pathIsAlwaysAllowed(r *http.Request) bool {
	if method, ok := h.allowedPaths[r.URL.Path]; ok {
		return method == r.Method
	}
	if r.Method != http.MethodGet {
		return false
	}
	// user progress lives under the skills prefix but is per-user
	if strings.HasPrefix(r.URL.Path, "/api/skills/user/") {
		return false
	}
	for _, prefix := range h.allowedPathsPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions || h.pathIsAlwaysAllowed(r) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			claims, err := h.tokens.Parse(token)
			if err != nil {
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-token")
				return
			}

			if h.revocations != nil {
				revoked, err := h.revocations.IsRevoked(ctx, claims.TokenID)
				if err != nil {
					// the token itself verified, so a redis outage does not lock everyone out
					log.Errorf("[failed revocation check] => %s: %s", r.URL.Path, err)
					span.RecordError(err)
				} else if revoked {
					log.Tracef("[revoked token] [auth middleware] unauthorized => %s", r.URL.Path)
					http.Error(w, "no can do", http.StatusUnauthorized)
					span.SetStatus(codes.Error, "revoked-token")
					return
				}
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}
