package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simryo/storefront-backend/internal/currency"
	"github.com/simryo/storefront-backend/pkg/enums"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
	"github.com/simryo/storefront-backend/pkg/metrics"
	"github.com/simryo/storefront-backend/pkg/types"
)

// Authorization is the handle returned by a payment gateway for one amount.
type Authorization struct {
	Provider     string
	Reference    string
	ClientSecret string
}

type gateway interface {
	CreateAuthorization(ctx context.Context, amountCents int, cur enums.Currency) (*Authorization, error)
}

type cartLoader interface {
	ValidItems(ctx context.Context, session string) ([]types.CartLineItem, error)
}

type sessionSaver interface {
	Save(ctx context.Context, session *PaymentSession) error
	Find(ctx context.Context, sessionID string) (*PaymentSession, error)
}

// SessionDTO is the checkout session as returned to the storefront. Amount is
// the settlement total the gateway was asked to authorize.
type SessionDTO struct {
	SessionID      string  `json:"sessionId"`
	ClientSecret   string  `json:"clientSecret"`
	Provider       string  `json:"provider"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	DisplayTotal   string  `json:"displayTotal"`
	ReferenceTotal float64 `json:"referenceTotal"`
	ItemCount      int     `json:"itemCount"`
}

// Service builds payment sessions from cart snapshots.
type Service interface {
	BuildSession(ctx context.Context, cartSession string) (*SessionDTO, error)
	GetSession(ctx context.Context, sessionID string) (*PaymentSession, error)
}

type service struct {
	cart      cartLoader
	sessions  sessionSaver
	converter *currency.Converter
	gateway   gateway
	metrics   *metrics.CheckoutMetrics
	logger    *logger.Logger
}

// NewService wires the checkout session builder.
func NewService(cart cartLoader, sessions sessionSaver, converter *currency.Converter, gw gateway, m *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if cart == nil {
		return nil, fmt.Errorf("cart loader required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if converter == nil {
		return nil, fmt.Errorf("currency converter required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		cart:      cart,
		sessions:  sessions,
		converter: converter,
		gateway:   gw,
		metrics:   m,
		logger:    logg,
	}, nil
}

// BuildSession snapshots the cart, prices it, and requests exactly one
// payment authorization for the converted total. The settlement conversion
// happens here, server-side, never per item and never client-supplied.
func (s *service) BuildSession(ctx context.Context, cartSession string) (*SessionDTO, error) {
	if cartSession == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}

	items, err := s.cart.ValidItems(ctx, cartSession)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty or contains no valid items")
	}

	referenceTotal := decimal.Zero
	itemCount := 0
	for _, item := range items {
		price := decimal.NewFromFloat(item.PlanData.Price)
		referenceTotal = referenceTotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		itemCount += item.Quantity
	}
	referenceTotal = referenceTotal.Round(2)
	if referenceTotal.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total must be positive")
	}

	settlementTotal := s.converter.EURToUSD(referenceTotal)
	amountCents := currency.Cents(settlementTotal)

	auth, err := s.gateway.CreateAuthorization(ctx, amountCents, enums.CurrencyUSD)
	if err != nil {
		return nil, err
	}

	fingerprint, err := FingerprintItems(items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to fingerprint cart")
	}

	session := &PaymentSession{
		ID:                  uuid.NewString(),
		CartSession:         cartSession,
		Provider:            auth.Provider,
		ProviderRef:         auth.Reference,
		ClientSecret:        auth.ClientSecret,
		AmountCents:         amountCents,
		Currency:            enums.CurrencyUSD,
		ReferenceTotalCents: currency.Cents(referenceTotal),
		ReferenceCurrency:   enums.CurrencyEUR,
		Fingerprint:         fingerprint,
		State:               enums.PaymentSessionCreated,
		Items:               items,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.metrics.IncSessionBuilt(auth.Provider)
	logCtx := s.logger.WithFields(s.logger.WithCartSession(ctx, cartSession), map[string]any{
		"payment_session_id": session.ID,
		"provider":           auth.Provider,
		"amount_cents":       amountCents,
	})
	s.logger.Info(logCtx, "payment session created")

	settlementFloat, _ := settlementTotal.Float64()
	referenceFloat, _ := referenceTotal.Float64()
	return &SessionDTO{
		SessionID:      session.ID,
		ClientSecret:   auth.ClientSecret,
		Provider:       auth.Provider,
		Amount:         settlementFloat,
		Currency:       string(enums.CurrencyUSD),
		DisplayTotal:   currency.Format(settlementTotal, enums.CurrencyUSD),
		ReferenceTotal: referenceFloat,
		ItemCount:      itemCount,
	}, nil
}

// GetSession loads an existing payment session.
func (s *service) GetSession(ctx context.Context, sessionID string) (*PaymentSession, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment session id is required")
	}
	return s.sessions.Find(ctx, sessionID)
}
