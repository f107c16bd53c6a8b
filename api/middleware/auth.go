package middleware

import (
	"net/http"
	"strings"

	"github.com/simryo/storefront-backend/api/responses"
	pkgauth "github.com/simryo/storefront-backend/pkg/auth"
	"github.com/simryo/storefront-backend/pkg/config"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
// Checkout is guest-first, so the token is required only on routes behind this
// middleware; everything else stays anonymous.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUser(r.Context(), claims.UserID.String(), claims.Email)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{"user_id": claims.UserID.String()})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
