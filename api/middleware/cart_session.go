package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/simryo/storefront-backend/pkg/logger"
)

const cartSessionHeader = "X-Cart-Session"

// CartSession resolves the shopper's cart identity. A missing or malformed
// header mints a fresh session; the response always echoes the one in effect
// so the client can carry it forward.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := strings.TrimSpace(r.Header.Get(cartSessionHeader))
			if _, err := uuid.Parse(session); err != nil {
				session = uuid.NewString()
			}

			w.Header().Set(cartSessionHeader, session)

			ctx := WithCartSession(r.Context(), session)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, session)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
