package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/simryo/storefront-backend/internal/checkout"
	"github.com/simryo/storefront-backend/pkg/db/models"
	"github.com/simryo/storefront-backend/pkg/enums"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
	"github.com/simryo/storefront-backend/pkg/metrics"
	pkgredis "github.com/simryo/storefront-backend/pkg/redis"
	"github.com/simryo/storefront-backend/pkg/types"
)

const confirmGuardTTL = 10 * time.Minute

type sessionRepository interface {
	Find(ctx context.Context, sessionID string) (*checkout.PaymentSession, error)
	Save(ctx context.Context, session *checkout.PaymentSession) error
}

type cartSnapshotter interface {
	ValidItems(ctx context.Context, session string) ([]types.CartLineItem, error)
}

type orderFinalizer interface {
	Finalize(ctx context.Context, draft types.OrderDraft) (*models.Order, error)
}

// ConfirmInput is one confirmation attempt against a payment session.
type ConfirmInput struct {
	SessionID   string             `validate:"required"`
	CartSession string             `validate:"required"`
	SourceToken string             `validate:"-"`
	Customer    types.CustomerInfo `validate:"required"`
}

// ConfirmResult reports the finalized order for a successful confirmation.
type ConfirmResult struct {
	OrderID     string `json:"orderId"`
	OrderStatus string `json:"orderStatus"`
	Provider    string `json:"provider"`
}

// Confirmer drives the payment session state machine:
// created -> confirming -> succeeded -> finalizing -> done, with failed as
// the re-submittable branch.
type Confirmer interface {
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
}

type confirmer struct {
	sessions  sessionRepository
	cart      cartSnapshotter
	gateway   Gateway
	finalizer orderFinalizer
	guard     pkgredis.IdempotencyStore
	validate  *validator.Validate
	metrics   *metrics.CheckoutMetrics
	logger    *logger.Logger
}

// NewConfirmer wires the payment confirmation flow.
func NewConfirmer(sessions sessionRepository, cart cartSnapshotter, gw Gateway, fin orderFinalizer, guard pkgredis.IdempotencyStore, m *metrics.CheckoutMetrics, logg *logger.Logger) (Confirmer, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart snapshotter required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if fin == nil {
		return nil, fmt.Errorf("order finalizer required")
	}
	if guard == nil {
		return nil, fmt.Errorf("confirmation guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &confirmer{
		sessions:  sessions,
		cart:      cart,
		gateway:   gw,
		finalizer: fin,
		guard:     guard,
		validate:  validator.New(),
		metrics:   m,
		logger:    logg,
	}, nil
}

func (c *confirmer) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	if err := c.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid confirmation request")
	}
	if input.Customer.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}

	session, err := c.sessions.Find(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if session.CartSession != input.CartSession {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment session does not belong to this cart")
	}
	if !session.State.CanConfirm() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment session cannot be confirmed from state %q", session.State))
	}

	// A session is priced for exactly one cart snapshot. Any mutation since
	// it was built forces a rebuild instead of charging a stale amount.
	items, err := c.cart.ValidItems(ctx, input.CartSession)
	if err != nil {
		return nil, err
	}
	fingerprint, err := checkout.FingerprintItems(items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to fingerprint cart")
	}
	if fingerprint != session.Fingerprint {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart changed after the payment session was created, rebuild the session")
	}

	guardKey := c.guard.IdempotencyKey("checkout.confirm", session.ID)
	acquired, err := c.guard.SetNX(ctx, guardKey, "1", confirmGuardTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to reserve confirmation")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "confirmation already in progress for this session")
	}

	start := time.Now()
	logCtx := c.logger.WithFields(c.logger.WithCartSession(ctx, input.CartSession), map[string]any{
		"payment_session_id": session.ID,
		"provider":           session.Provider,
	})

	session.State = enums.PaymentSessionConfirming
	session.Customer = &input.Customer
	if err := c.sessions.Save(ctx, session); err != nil {
		c.releaseGuard(ctx, guardKey)
		return nil, err
	}

	status, err := c.gateway.ConfirmAuthorization(ctx, ConfirmParams{
		Reference:   session.ProviderRef,
		SourceToken: input.SourceToken,
		AmountCents: session.AmountCents,
		Currency:    session.Currency,
		BuyerEmail:  input.Customer.Email,
	})
	if err != nil {
		c.recordFailure(ctx, session, guardKey, failureMessage(err))
		c.metrics.IncConfirmation(session.Provider, "error")
		return nil, err
	}

	if status.State != AuthorizationSucceeded {
		message := status.Message
		if message == "" {
			message = "payment was not completed"
		}
		c.recordFailure(ctx, session, guardKey, message)
		c.metrics.IncConfirmation(session.Provider, "declined")
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, message)
	}

	if status.Reference != "" {
		session.ProviderRef = status.Reference
	}
	session.State = enums.PaymentSessionSucceeded
	session.FailureMessage = ""
	if err := c.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	c.logger.Info(logCtx, "payment confirmed")

	session.State = enums.PaymentSessionFinalizing
	if err := c.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	order, err := c.finalizer.Finalize(ctx, types.OrderDraft{
		CartSession:          session.CartSession,
		Customer:             input.Customer,
		Items:                session.Items,
		PaymentProvider:      session.Provider,
		PaymentRef:           session.ProviderRef,
		ReferenceCurrency:    string(session.ReferenceCurrency),
		ReferenceTotalCents:  session.ReferenceTotalCents,
		SettlementCurrency:   string(session.Currency),
		SettlementTotalCents: session.AmountCents,
	})
	if err != nil {
		// The charge stands; succeeded blocks a second confirm while the
		// finalization is investigated.
		session.State = enums.PaymentSessionSucceeded
		session.FailureMessage = "order finalization failed"
		if saveErr := c.sessions.Save(ctx, session); saveErr != nil {
			c.logger.Error(logCtx, "failed to record finalization failure", saveErr)
		}
		c.metrics.IncConfirmation(session.Provider, "finalize_error")
		return nil, err
	}

	session.State = enums.PaymentSessionDone
	session.OrderID = order.ID.String()
	if err := c.sessions.Save(ctx, session); err != nil {
		c.logger.Error(logCtx, "failed to mark payment session done", err)
	}

	c.metrics.IncConfirmation(session.Provider, "succeeded")
	c.metrics.ObserveConfirmDuration(session.Provider, time.Since(start))
	c.logger.Info(c.logger.WithOrderID(logCtx, order.ID.String()), "order finalized")

	return &ConfirmResult{
		OrderID:     order.ID.String(),
		OrderStatus: string(order.Status),
		Provider:    session.Provider,
	}, nil
}

// recordFailure moves the session to the re-submittable failed state and
// releases the confirmation guard so the user can try again.
func (c *confirmer) recordFailure(ctx context.Context, session *checkout.PaymentSession, guardKey, message string) {
	session.State = enums.PaymentSessionFailed
	session.FailureMessage = message
	if err := c.sessions.Save(ctx, session); err != nil {
		c.logger.Error(ctx, "failed to record payment failure", err)
	}
	c.releaseGuard(ctx, guardKey)
}

func (c *confirmer) releaseGuard(ctx context.Context, guardKey string) {
	if err := c.guard.Del(ctx, guardKey); err != nil {
		c.logger.Error(ctx, "failed to release confirmation guard", err)
	}
}

func failureMessage(err error) string {
	if domainErr := pkgerrors.As(err); domainErr != nil {
		return domainErr.Message()
	}
	return "payment confirmation failed"
}
