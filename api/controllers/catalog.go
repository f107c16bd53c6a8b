package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/simryo/storefront-backend/api/responses"
	catalogsvc "github.com/simryo/storefront-backend/internal/catalog"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
)

// CatalogCountries lists every destination with its active plans.
func CatalogCountries(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		countries, err := svc.ListCountries(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, countries)
	}
}

// CatalogCountry returns a single destination by its numeric id.
func CatalogCountry(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		countryID, err := strconv.Atoi(chi.URLParam(r, "countryId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "country id must be numeric"))
			return
		}

		country, err := svc.GetCountry(r.Context(), countryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, country)
	}
}
