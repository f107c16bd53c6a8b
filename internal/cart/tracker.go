package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type activityStore interface {
	ZAdd(ctx context.Context, key string, members ...goredis.Z) error
	ZRangeByScoreWithScores(ctx context.Context, key, min, max string, offset, count int64) ([]goredis.Z, error)
	ZRem(ctx context.Context, key string, members ...any) error
	HSet(ctx context.Context, key string, values ...any) error
	HGet(ctx context.Context, key, field string) (string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	CartActivityKey() string
	CartMetaKey() string
}

// Tracker records each cart session's last write and item count outside the
// expiring cart key, so a cart can still be reported after redis drops it.
type Tracker struct {
	store activityStore
}

func NewTracker(store activityStore) (*Tracker, error) {
	if store == nil {
		return nil, fmt.Errorf("activity store required")
	}
	return &Tracker{store: store}, nil
}

// Touch marks the session as active at the given time.
func (t *Tracker) Touch(ctx context.Context, session string, itemCount int, at time.Time) error {
	if session == "" {
		return fmt.Errorf("cart session required")
	}
	if err := t.store.ZAdd(ctx, t.store.CartActivityKey(), goredis.Z{
		Score:  float64(at.Unix()),
		Member: session,
	}); err != nil {
		return err
	}
	return t.store.HSet(ctx, t.store.CartMetaKey(), session, itemCount)
}

// Forget drops the session from the activity index. Called when a cart is
// cleared, checked out, or already reported as abandoned.
func (t *Tracker) Forget(ctx context.Context, session string) error {
	if session == "" {
		return fmt.Errorf("cart session required")
	}
	if err := t.store.ZRem(ctx, t.store.CartActivityKey(), session); err != nil {
		return err
	}
	return t.store.HDel(ctx, t.store.CartMetaKey(), session)
}

// AbandonedCart is a session whose cart key expired without a checkout.
type AbandonedCart struct {
	Session     string
	ItemCount   int
	LastTouched time.Time
}

// ExpiredBefore lists sessions whose last write predates the cutoff, oldest
// first, capped at limit.
func (t *Tracker) ExpiredBefore(ctx context.Context, cutoff time.Time, limit int64) ([]AbandonedCart, error) {
	entries, err := t.store.ZRangeByScoreWithScores(
		ctx,
		t.store.CartActivityKey(),
		"-inf",
		strconv.FormatInt(cutoff.Unix(), 10),
		0,
		limit,
	)
	if err != nil {
		return nil, err
	}

	carts := make([]AbandonedCart, 0, len(entries))
	for _, entry := range entries {
		session, ok := entry.Member.(string)
		if !ok || session == "" {
			continue
		}
		count := 0
		raw, err := t.store.HGet(ctx, t.store.CartMetaKey(), session)
		switch {
		case err == nil:
			count, _ = strconv.Atoi(raw)
		case errors.Is(err, goredis.Nil):
			// meta evicted, report the session with an unknown count
		default:
			return nil, err
		}
		carts = append(carts, AbandonedCart{
			Session:     session,
			ItemCount:   count,
			LastTouched: time.Unix(int64(entry.Score), 0).UTC(),
		})
	}
	return carts, nil
}
