package controllers

import (
	"context"
	"net/http"

	"github.com/simryo/storefront-backend/api/responses"
	"github.com/simryo/storefront-backend/pkg/config"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Simryo-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Simryo-Env", cfg.App.Env)

		status := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				status[name] = "skipped"
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				status[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "readiness check failed: "+name, err)
				}
				continue
			}
			status[name] = "up"
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "service not ready").WithDetails(status))
			return
		}
		responses.WriteSuccess(w, status)
	}
}
