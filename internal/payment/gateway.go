package payment

import (
	"context"
	"fmt"

	"github.com/simryo/storefront-backend/internal/checkout"
	"github.com/simryo/storefront-backend/pkg/config"
	"github.com/simryo/storefront-backend/pkg/enums"
	pkgsquare "github.com/simryo/storefront-backend/pkg/square"
	pkgstripe "github.com/simryo/storefront-backend/pkg/stripe"
)

// AuthorizationState is the processor-reported state of an authorization.
type AuthorizationState string

const (
	AuthorizationSucceeded  AuthorizationState = "succeeded"
	AuthorizationProcessing AuthorizationState = "processing"
	AuthorizationFailed     AuthorizationState = "failed"
)

// AuthorizationStatus is what the processor reports for one authorization.
// Message carries the processor's human-readable failure text verbatim.
type AuthorizationStatus struct {
	Reference string
	State     AuthorizationState
	Message   string
}

// ConfirmParams carries what a processor needs to settle one authorization.
// SourceToken is the tokenized card for processors that collect it through
// their own widget (Square); Stripe confirms through the client secret and
// leaves it empty.
type ConfirmParams struct {
	Reference   string
	SourceToken string
	AmountCents int
	Currency    enums.Currency
	BuyerEmail  string
}

// Gateway abstracts the external payment processor. One authorization per
// amount; amounts are settlement-currency cents.
type Gateway interface {
	Provider() string
	CreateAuthorization(ctx context.Context, amountCents int, cur enums.Currency) (*checkout.Authorization, error)
	ConfirmAuthorization(ctx context.Context, params ConfirmParams) (*AuthorizationStatus, error)
	RetrieveAuthorization(ctx context.Context, reference string) (*AuthorizationStatus, error)
}

// NewGateway selects the configured processor implementation.
func NewGateway(cfg config.PaymentConfig, stripeClient *pkgstripe.Client, squareClient *pkgsquare.Client) (Gateway, error) {
	switch cfg.NormalizedProvider() {
	case config.PaymentProviderStripe:
		return newStripeGateway(stripeClient)
	case config.PaymentProviderSquare:
		return newSquareGateway(squareClient)
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Provider)
	}
}
