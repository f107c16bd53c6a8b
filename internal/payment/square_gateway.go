package payment

import (
	"context"
	"fmt"

	"github.com/simryo/storefront-backend/internal/checkout"
	"github.com/simryo/storefront-backend/pkg/enums"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	pkgsquare "github.com/simryo/storefront-backend/pkg/square"
)

const squareProviderName = "square"

// squarePayments is the slice of the Square wrapper the gateway consumes.
type squarePayments interface {
	CreatePayment(ctx context.Context, params pkgsquare.PaymentCreateParams) (*squarePaymentResult, error)
	GetPayment(ctx context.Context, paymentID string) (*squarePaymentResult, error)
	NewIdempotencyKey(prefix string) string
	LocationID() string
}

// squarePaymentResult is the gateway's view of a Square payment.
type squarePaymentResult struct {
	ID     string
	Status string
}

type squareClientAdapter struct {
	client *pkgsquare.Client
}

func (a *squareClientAdapter) CreatePayment(ctx context.Context, params pkgsquare.PaymentCreateParams) (*squarePaymentResult, error) {
	payment, err := a.client.CreatePayment(ctx, params)
	if err != nil {
		return nil, err
	}
	return &squarePaymentResult{
		ID:     derefString(payment.GetID()),
		Status: derefString(payment.GetStatus()),
	}, nil
}

func (a *squareClientAdapter) GetPayment(ctx context.Context, paymentID string) (*squarePaymentResult, error) {
	payment, err := a.client.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return &squarePaymentResult{
		ID:     derefString(payment.GetID()),
		Status: derefString(payment.GetStatus()),
	}, nil
}

func (a *squareClientAdapter) NewIdempotencyKey(prefix string) string {
	return a.client.NewIdempotencyKey(prefix)
}

func (a *squareClientAdapter) LocationID() string {
	return a.client.LocationID()
}

type squareGateway struct {
	payments squarePayments
}

func newSquareGateway(client *pkgsquare.Client) (*squareGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("square client required")
	}
	return &squareGateway{payments: &squareClientAdapter{client: client}}, nil
}

func (g *squareGateway) Provider() string {
	return squareProviderName
}

// CreateAuthorization reserves an idempotency handle for one amount. Square
// only creates the payment once the storefront has tokenized the card, so
// the handle doubles as the client secret the widget binds to.
func (g *squareGateway) CreateAuthorization(_ context.Context, amountCents int, cur enums.Currency) (*checkout.Authorization, error) {
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization amount must be positive")
	}
	if !cur.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported settlement currency")
	}
	reference := g.payments.NewIdempotencyKey("payment")
	return &checkout.Authorization{
		Provider:     squareProviderName,
		Reference:    reference,
		ClientSecret: reference,
	}, nil
}

// ConfirmAuthorization creates the Square payment from the tokenized card.
// The idempotency handle from CreateAuthorization pins the amount: Square
// rejects a reused key with different parameters.
func (g *squareGateway) ConfirmAuthorization(ctx context.Context, params ConfirmParams) (*AuthorizationStatus, error) {
	if params.SourceToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment source token is required")
	}
	if params.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization amount must be positive")
	}

	payment, err := g.payments.CreatePayment(ctx, pkgsquare.PaymentCreateParams{
		AmountCents:    int64(params.AmountCents),
		Currency:       string(params.Currency),
		LocationID:     g.payments.LocationID(),
		SourceID:       params.SourceToken,
		IdempotencyKey: params.Reference,
		ReferenceID:    params.Reference,
		BuyerEmail:     params.BuyerEmail,
	})
	if err != nil {
		return nil, err
	}
	return statusFromSquare(payment), nil
}

// RetrieveAuthorization reads back a created Square payment.
func (g *squareGateway) RetrieveAuthorization(ctx context.Context, reference string) (*AuthorizationStatus, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization reference is required")
	}
	payment, err := g.payments.GetPayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	return statusFromSquare(payment), nil
}

func statusFromSquare(payment *squarePaymentResult) *AuthorizationStatus {
	status := &AuthorizationStatus{Reference: payment.ID}
	switch payment.Status {
	case "COMPLETED":
		status.State = AuthorizationSucceeded
	case "PENDING", "APPROVED":
		status.State = AuthorizationProcessing
	default:
		status.State = AuthorizationFailed
		status.Message = fmt.Sprintf("payment not completed (status %s)", payment.Status)
	}
	return status
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
