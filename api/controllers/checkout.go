package controllers

import (
	"net/http"

	"github.com/simryo/storefront-backend/api/responses"
	"github.com/simryo/storefront-backend/api/validators"
	checkoutsvc "github.com/simryo/storefront-backend/internal/checkout"
	paymentsvc "github.com/simryo/storefront-backend/internal/payment"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
	"github.com/simryo/storefront-backend/pkg/types"
)

type confirmRequest struct {
	SessionID   string `json:"session_id" validate:"required"`
	SourceToken string `json:"source_token"`
	Customer    struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name"`
	} `json:"customer" validate:"required"`
}

// CheckoutSessionCreate prices the cart server-side and opens a payment session.
func CheckoutSessionCreate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		session, err := cartSessionFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.BuildSession(r.Context(), session)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// CheckoutConfirm settles the payment session and finalizes the order.
func CheckoutConfirm(conf paymentsvc.Confirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if conf == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		session, err := cartSessionFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := conf.Confirm(r.Context(), paymentsvc.ConfirmInput{
			SessionID:   payload.SessionID,
			CartSession: session,
			SourceToken: payload.SourceToken,
			Customer: types.CustomerInfo{
				Email: payload.Customer.Email,
				Name:  payload.Customer.Name,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
