package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/simryo/storefront-backend/api/middleware"
	"github.com/simryo/storefront-backend/api/responses"
	userssvc "github.com/simryo/storefront-backend/internal/users"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
)

// Me returns the authenticated shopper's profile.
func Me(repo *userssvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		user, err := repo.FindByID(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found"))
			return
		}

		responses.WriteSuccess(w, userssvc.FromModel(user))
	}
}
