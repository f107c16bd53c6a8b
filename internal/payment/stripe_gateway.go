package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/simryo/storefront-backend/internal/checkout"
	"github.com/simryo/storefront-backend/pkg/enums"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	pkgstripe "github.com/simryo/storefront-backend/pkg/stripe"
)

const stripeProviderName = "stripe"

// stripeIntentClient is the subset of Stripe payment-intent operations the
// gateway needs. The configured client's V1PaymentIntents service satisfies
// it directly; tests substitute a fake.
type stripeIntentClient interface {
	Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	Retrieve(ctx context.Context, id string, params *stripe.PaymentIntentRetrieveParams) (*stripe.PaymentIntent, error)
}

type stripeGateway struct {
	intents stripeIntentClient
}

func newStripeGateway(client *pkgstripe.Client) (*stripeGateway, error) {
	if client == nil || client.API() == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	return &stripeGateway{intents: client.API().V1PaymentIntents}, nil
}

func (g *stripeGateway) Provider() string {
	return stripeProviderName
}

// CreateAuthorization opens a payment intent for exactly one amount.
func (g *stripeGateway) CreateAuthorization(ctx context.Context, amountCents int, cur enums.Currency) (*checkout.Authorization, error) {
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization amount must be positive")
	}
	if !cur.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported settlement currency")
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(int64(amountCents)),
		Currency: stripe.String(strings.ToLower(string(cur))),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	intent, err := g.intents.Create(ctx, params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return &checkout.Authorization{
		Provider:     stripeProviderName,
		Reference:    intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// ConfirmAuthorization checks the intent the storefront confirmed through
// the client secret. Stripe collects the card itself, so the token is unused.
func (g *stripeGateway) ConfirmAuthorization(ctx context.Context, params ConfirmParams) (*AuthorizationStatus, error) {
	return g.RetrieveAuthorization(ctx, params.Reference)
}

// RetrieveAuthorization reports the processor-side state of an intent after
// the storefront's confirmation attempt.
func (g *stripeGateway) RetrieveAuthorization(ctx context.Context, reference string) (*AuthorizationStatus, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization reference is required")
	}
	intent, err := g.intents.Retrieve(ctx, reference, nil)
	if err != nil {
		return nil, mapStripeError(err)
	}

	status := &AuthorizationStatus{Reference: intent.ID}
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status.State = AuthorizationSucceeded
	case stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresConfirmation:
		status.State = AuthorizationProcessing
	default:
		status.State = AuthorizationFailed
		if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			status.Message = intent.LastPaymentError.Msg
		} else {
			status.Message = fmt.Sprintf("payment not completed (status %s)", intent.Status)
		}
	}
	return status, nil
}

// mapStripeError keeps the processor's own message for card failures and
// reports everything else as the gateway being unavailable.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Type == stripe.ErrorTypeCard {
			return pkgerrors.Wrap(pkgerrors.CodePaymentDeclined, err, stripeErr.Msg)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway rejected the request")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable")
}
