package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/simryo/storefront-backend/api/responses"
	"github.com/simryo/storefront-backend/pkg/config"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
)

// RateLimiter applies a fixed-window counter for the given scope.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// CheckoutRateLimit throttles checkout attempts per cart session, falling
// back to the client IP when no session is in scope yet.
func CheckoutRateLimit(cfg config.RateLimitConfig, store RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || cfg.CheckoutLimit <= 0 || cfg.CheckoutWindow <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			subject := CartSessionFromContext(ctx)
			if subject == "" {
				subject = clientIP(r)
			}

			scope := "checkout:" + subject
			allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(cfg.CheckoutLimit), cfg.CheckoutWindow)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"scope":          scope,
						"attempts":       count,
						"limit":          cfg.CheckoutLimit,
						"window_seconds": int(cfg.CheckoutWindow.Seconds()),
					})
					logg.Warn(logCtx, "checkout.rate_limit.blocked")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many checkout attempts"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
