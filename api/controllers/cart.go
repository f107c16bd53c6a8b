package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/simryo/storefront-backend/api/middleware"
	"github.com/simryo/storefront-backend/api/responses"
	"github.com/simryo/storefront-backend/api/validators"
	cartsvc "github.com/simryo/storefront-backend/internal/cart"
	catalogsvc "github.com/simryo/storefront-backend/internal/catalog"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
)

type addCartItemRequest struct {
	CountryID int `json:"country_id" validate:"required,min=1"`
	PlanIndex int `json:"plan_index" validate:"min=0"`
	Quantity  int `json:"quantity" validate:"required,min=1"`
}

type updateCartItemRequest struct {
	CountryID int `json:"country_id" validate:"required,min=1"`
	PlanIndex int `json:"plan_index" validate:"min=0"`
	Quantity  int `json:"quantity"`
}

// CartFetch returns the shopper's current cart view.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := cartSessionFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), session)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// CartAddItem resolves a catalog selection into a price snapshot and merges it
// into the cart. Prices are never taken from the request.
func CartAddItem(cart cartsvc.Service, catalog catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := cartSessionFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := catalog.ResolveSelection(r.Context(), payload.CountryID, payload.PlanIndex, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := cart.AddItem(r.Context(), session, *item)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// CartUpdateItem sets the quantity for an existing line. Zero or below removes it.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := cartSessionFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateQuantity(r.Context(), session, payload.CountryID, payload.PlanIndex, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// CartRemoveItem drops one line from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := cartSessionFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		countryID, err := strconv.Atoi(chi.URLParam(r, "countryId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "country id must be numeric"))
			return
		}
		planIndex, err := strconv.Atoi(chi.URLParam(r, "planIndex"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "plan index must be numeric"))
			return
		}

		view, err := svc.RemoveItem(r.Context(), session, countryID, planIndex)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// CartClear empties the cart entirely.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := cartSessionFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), session); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func cartSessionFromContext(r *http.Request) (string, error) {
	session := middleware.CartSessionFromContext(r.Context())
	if session == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart session missing")
	}
	return session, nil
}
