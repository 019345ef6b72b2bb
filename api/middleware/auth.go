package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/emlakhub/emlakhub-backend/api/responses"
	pkgAuth "github.com/emlakhub/emlakhub-backend/pkg/auth"
	"github.com/emlakhub/emlakhub-backend/pkg/config"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

// ActorResolver turns verified token claims into the caller's current identity.
// The role comes from the user record, not from the token.
type ActorResolver interface {
	Resolve(ctx context.Context, claims *pkgAuth.AccessTokenClaims) (visibility.Actor, error)
}

// Auth requires a valid bearer token and seeds the request context with the actor.
func Auth(cfg config.JWTConfig, resolver ActorResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, resolver, logg, true)
}

// OptionalAuth resolves the actor when a bearer token is present and lets
// anonymous requests through. A token that is present but invalid is rejected.
func OptionalAuth(cfg config.JWTConfig, resolver ActorResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, resolver, logg, false)
}

func authenticate(cfg config.JWTConfig, resolver ActorResolver, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if required {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), visibility.Anonymous())))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor, err := resolver.Resolve(r.Context(), claims)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithActor(ctx, actor.ID.String(), string(actor.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
