package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/simryo/storefront-backend/pkg/config"
	"github.com/simryo/storefront-backend/pkg/enums"
	"github.com/simryo/storefront-backend/pkg/logger"
	"github.com/simryo/storefront-backend/pkg/outbox"
	"github.com/simryo/storefront-backend/pkg/outbox/payloads"
)

const sweepBatchSize = 100

type abandonedSource interface {
	ExpiredBefore(ctx context.Context, cutoff time.Time, limit int64) ([]AbandonedCart, error)
	Forget(ctx context.Context, session string) error
}

type domainEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Sweeper turns carts that outlived their TTL without a checkout into
// cart_abandoned outbox events.
type Sweeper struct {
	tracker  abandonedSource
	db       txRunner
	events   domainEmitter
	logg     *logger.Logger
	cartTTL  time.Duration
	interval time.Duration
	now      func() time.Time
}

// SweeperParams carries the sweeper dependencies.
type SweeperParams struct {
	Config  config.CheckoutConfig
	Logger  *logger.Logger
	Tracker abandonedSource
	DB      txRunner
	Outbox  domainEmitter
}

func NewSweeper(params SweeperParams) (*Sweeper, error) {
	if params.Tracker == nil {
		return nil, fmt.Errorf("cart tracker required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Config.CartTTL <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	interval := params.Config.CartSweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		tracker:  params.Tracker,
		db:       params.DB,
		events:   params.Outbox,
		logg:     params.Logger,
		cartTTL:  params.Config.CartTTL,
		interval: interval,
		now:      time.Now,
	}, nil
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logg.Info(ctx, "cart abandonment sweeper started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.sweepOnce(ctx); err != nil {
				s.logg.Error(ctx, "cart abandonment sweep failed", err)
			}
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) error {
	cutoff := s.now().Add(-s.cartTTL)
	carts, err := s.tracker.ExpiredBefore(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return err
	}

	for _, cart := range carts {
		logCtx := s.logg.WithCartSession(ctx, cart.Session)

		aggregateID, err := uuid.Parse(cart.Session)
		if err != nil {
			// Not a session we minted. Drop it instead of retrying forever.
			s.logg.Warn(logCtx, "dropping activity entry with malformed session")
			if err := s.tracker.Forget(ctx, cart.Session); err != nil {
				s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "failed to drop malformed activity entry")
			}
			continue
		}

		if err := s.record(ctx, aggregateID, cart); err != nil {
			s.logg.Error(logCtx, "failed to record abandoned cart", err)
			continue
		}
		// The emit dedupes on (event, aggregate), so a failed forget only
		// costs a retry on the next pass.
		if err := s.tracker.Forget(ctx, cart.Session); err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "failed to drop swept cart from activity index")
			continue
		}
		s.logg.Info(logCtx, "abandoned cart recorded")
	}
	return nil
}

func (s *Sweeper) record(ctx context.Context, aggregateID uuid.UUID, cart AbandonedCart) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartAbandoned,
			AggregateType: enums.AggregateCart,
			AggregateID:   aggregateID,
			Version:       1,
			OccurredAt:    s.now(),
			Data: payloads.CartAbandonedEvent{
				CartSession: cart.Session,
				ItemCount:   cart.ItemCount,
				LastTouched: cart.LastTouched,
			},
		})
	})
}
