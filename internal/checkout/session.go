package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/simryo/storefront-backend/pkg/config"
	"github.com/simryo/storefront-backend/pkg/enums"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/types"
)

// PaymentSession is the server-side record of one payment authorization. It
// is valid for exactly one computed total; the fingerprint ties it to the
// cart snapshot it was priced from.
type PaymentSession struct {
	ID                  string                    `json:"id"`
	CartSession         string                    `json:"cartSession"`
	Provider            string                    `json:"provider"`
	ProviderRef         string                    `json:"providerRef"`
	ClientSecret        string                    `json:"clientSecret"`
	AmountCents         int                       `json:"amountCents"`
	Currency            enums.Currency            `json:"currency"`
	ReferenceTotalCents int                       `json:"referenceTotalCents"`
	ReferenceCurrency   enums.Currency            `json:"referenceCurrency"`
	Fingerprint         string                    `json:"fingerprint"`
	State               enums.PaymentSessionState `json:"state"`
	Items               []types.CartLineItem      `json:"items"`
	Customer            *types.CustomerInfo       `json:"customer,omitempty"`
	FailureMessage      string                    `json:"failureMessage,omitempty"`
	OrderID             string                    `json:"orderId,omitempty"`
	CreatedAt           time.Time                 `json:"createdAt"`
	UpdatedAt           time.Time                 `json:"updatedAt"`
}

// FingerprintItems hashes the canonical JSON of a cart snapshot. Any change
// to items, quantities, or prices produces a different fingerprint.
func FingerprintItems(items []types.CartLineItem) (string, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("fingerprint cart snapshot: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

type sessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	PaymentSessionKey(sessionID string) string
}

// Repository persists payment sessions in redis for the checkout TTL.
type Repository struct {
	store sessionStore
	ttl   time.Duration
}

// NewRepository builds a redis-backed payment session repository.
func NewRepository(store sessionStore, cfg config.CheckoutConfig) (*Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Repository{store: store, ttl: cfg.SessionTTL}, nil
}

// Save writes the session, refreshing its TTL.
func (r *Repository) Save(ctx context.Context, session *PaymentSession) error {
	session.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to encode payment session")
	}
	if err := r.store.Set(ctx, r.store.PaymentSessionKey(session.ID), string(payload), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store payment session")
	}
	return nil
}

// Find loads a session by ID. Expired or unknown sessions map to not found.
func (r *Repository) Find(ctx context.Context, sessionID string) (*PaymentSession, error) {
	raw, err := r.store.Get(ctx, r.store.PaymentSessionKey(sessionID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found or expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load payment session")
	}
	var session PaymentSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to decode payment session")
	}
	return &session, nil
}

// Delete removes a session outright.
func (r *Repository) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, r.store.PaymentSessionKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete payment session")
	}
	return nil
}
