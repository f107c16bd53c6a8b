package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/simryo/storefront-backend/pkg/config"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
	"github.com/simryo/storefront-backend/pkg/types"
)

type cartStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Publish(ctx context.Context, channel string, message any) error
	CartKey(session string) string
	CartUpdatedChannel(session string) string
}

// View is the cart as rendered to the storefront. Totals cover valid items
// only; entries that fail validation are dropped from the view and priced
// at zero.
type View struct {
	Session   string               `json:"session"`
	Items     []types.CartLineItem `json:"items"`
	ItemCount int                  `json:"itemCount"`
	Subtotal  float64              `json:"subtotal"`
	Currency  string               `json:"currency"`
}

// Service exposes the session cart operations.
type Service interface {
	Get(ctx context.Context, session string) (*View, error)
	AddItem(ctx context.Context, session string, item types.CartLineItem) (*View, error)
	UpdateQuantity(ctx context.Context, session string, countryID, planIndex, quantity int) (*View, error)
	RemoveItem(ctx context.Context, session string, countryID, planIndex int) (*View, error)
	Clear(ctx context.Context, session string) error
	ValidItems(ctx context.Context, session string) ([]types.CartLineItem, error)
}

type service struct {
	store    cartStore
	tracker  *Tracker
	validate *validator.Validate
	cartTTL  time.Duration
	logger   *logger.Logger
}

// NewService builds a redis-backed cart service. A nil tracker disables the
// abandonment index.
func NewService(store cartStore, tracker *Tracker, cfg config.CheckoutConfig, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.CartTTL <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &service{
		store:    store,
		tracker:  tracker,
		validate: validator.New(),
		cartTTL:  cfg.CartTTL,
		logger:   logg,
	}, nil
}

// Get loads the cart for a session. A malformed payload that is not a JSON
// array is discarded and the key purged rather than surfaced to the caller.
func (s *service) Get(ctx context.Context, session string) (*View, error) {
	items, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}
	return s.view(session, items), nil
}

// ValidItems returns the validated line items without the view wrapper. The
// checkout session builder snapshots these.
func (s *service) ValidItems(ctx context.Context, session string) ([]types.CartLineItem, error) {
	return s.load(ctx, session)
}

// AddItem merges the item into the cart, summing quantities when the same
// (country, plan) pair is already present.
func (s *service) AddItem(ctx context.Context, session string, item types.CartLineItem) (*View, error) {
	if session == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	if err := s.validate.Struct(item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart item")
	}

	items, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range items {
		if items[i].Key() == item.Key() {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	if err := s.persist(ctx, session, items); err != nil {
		return nil, err
	}
	return s.view(session, items), nil
}

// UpdateQuantity sets the quantity for an existing line item. A quantity of
// zero or less removes the item.
func (s *service) UpdateQuantity(ctx context.Context, session string, countryID, planIndex, quantity int) (*View, error) {
	items, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%d:%d", countryID, planIndex)
	found := false
	next := make([]types.CartLineItem, 0, len(items))
	for _, it := range items {
		if it.Key() != key {
			next = append(next, it)
			continue
		}
		found = true
		if quantity > 0 {
			it.Quantity = quantity
			next = append(next, it)
		}
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}

	if err := s.persist(ctx, session, next); err != nil {
		return nil, err
	}
	return s.view(session, next), nil
}

// RemoveItem drops a line item from the cart.
func (s *service) RemoveItem(ctx context.Context, session string, countryID, planIndex int) (*View, error) {
	return s.UpdateQuantity(ctx, session, countryID, planIndex, 0)
}

// Clear deletes the cart entirely.
func (s *service) Clear(ctx context.Context, session string) error {
	if err := s.store.Del(ctx, s.store.CartKey(session)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to clear cart")
	}
	if s.tracker != nil {
		if err := s.tracker.Forget(ctx, session); err != nil {
			logCtx := s.logger.WithField(s.logger.WithCartSession(ctx, session), "error", err.Error())
			s.logger.Warn(logCtx, "cart activity forget failed")
		}
	}
	s.notify(ctx, session)
	return nil
}

// load reads and leniently decodes the stored cart. Each entry is decoded on
// its own so one bad item cannot take the whole cart down with it.
func (s *service) load(ctx context.Context, session string) ([]types.CartLineItem, error) {
	raw, err := s.store.Get(ctx, s.store.CartKey(session))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return []types.CartLineItem{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}

	logCtx := s.logger.WithCartSession(ctx, session)

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.Warn(s.logger.WithField(logCtx, "error", err.Error()), "cart payload is not a JSON array, resetting")
		if delErr := s.store.Del(ctx, s.store.CartKey(session)); delErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, delErr, "failed to reset cart")
		}
		return []types.CartLineItem{}, nil
	}

	items := make([]types.CartLineItem, 0, len(entries))
	for _, entry := range entries {
		var item types.CartLineItem
		if err := json.Unmarshal(entry, &item); err != nil {
			s.logger.Warn(s.logger.WithField(logCtx, "error", err.Error()), "skipping undecodable cart entry")
			continue
		}
		if err := s.validate.Struct(item); err != nil {
			s.logger.Warn(s.logger.WithField(logCtx, "error", err.Error()), "skipping invalid cart entry")
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *service) persist(ctx context.Context, session string, items []types.CartLineItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to encode cart")
	}
	if err := s.store.Set(ctx, s.store.CartKey(session), string(payload), s.cartTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store cart")
	}
	if s.tracker != nil {
		count := 0
		for _, it := range items {
			count += it.Quantity
		}
		if err := s.tracker.Touch(ctx, session, count, time.Now()); err != nil {
			logCtx := s.logger.WithField(s.logger.WithCartSession(ctx, session), "error", err.Error())
			s.logger.Warn(logCtx, "cart activity touch failed")
		}
	}
	s.notify(ctx, session)
	return nil
}

// notify publishes an empty message on the session's cart channel so open
// storefront tabs refetch. Delivery failures are logged, not propagated.
func (s *service) notify(ctx context.Context, session string) {
	if err := s.store.Publish(ctx, s.store.CartUpdatedChannel(session), ""); err != nil {
		logCtx := s.logger.WithField(s.logger.WithCartSession(ctx, session), "error", err.Error())
		s.logger.Warn(logCtx, "cart update publish failed")
	}
}

func (s *service) view(session string, items []types.CartLineItem) *View {
	subtotal := decimal.Zero
	count := 0
	for _, it := range items {
		price := decimal.NewFromFloat(it.PlanData.Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		count += it.Quantity
	}
	total, _ := subtotal.Round(2).Float64()
	return &View{
		Session:   session,
		Items:     items,
		ItemCount: count,
		Subtotal:  total,
		Currency:  "EUR",
	}
}
