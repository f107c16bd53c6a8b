package cart

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/simryo/storefront-backend/pkg/config"
	"github.com/simryo/storefront-backend/pkg/enums"
	"github.com/simryo/storefront-backend/pkg/logger"
	"github.com/simryo/storefront-backend/pkg/outbox"
	"github.com/simryo/storefront-backend/pkg/outbox/payloads"
)

type fakeAbandonedSource struct {
	carts     []AbandonedCart
	forgotten []string
}

func (s *fakeAbandonedSource) ExpiredBefore(_ context.Context, _ time.Time, _ int64) ([]AbandonedCart, error) {
	return s.carts, nil
}

func (s *fakeAbandonedSource) Forget(_ context.Context, session string) error {
	s.forgotten = append(s.forgotten, session)
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type recordingEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (e *recordingEmitter) EmitIfNotExists(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	return nil
}

func newTestSweeper(t *testing.T, tracker abandonedSource, emitter domainEmitter) *Sweeper {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "cart-test", Level: zerolog.Disabled, Output: io.Discard})
	sweeper, err := NewSweeper(SweeperParams{
		Config:  config.CheckoutConfig{CartTTL: time.Hour, CartSweepInterval: time.Minute},
		Logger:  logg,
		Tracker: tracker,
		DB:      fakeTxRunner{},
		Outbox:  emitter,
	})
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	sweeper.now = func() time.Time { return time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC) }
	return sweeper
}

func TestSweepRecordsAbandonedCarts(t *testing.T) {
	session := uuid.New()
	touched := time.Date(2026, 8, 19, 10, 0, 0, 0, time.UTC)
	tracker := &fakeAbandonedSource{carts: []AbandonedCart{
		{Session: session.String(), ItemCount: 2, LastTouched: touched},
	}}
	emitter := &recordingEmitter{}
	sweeper := newTestSweeper(t, tracker, emitter)

	if err := sweeper.sweepOnce(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}
	event := emitter.events[0]
	if event.EventType != enums.EventCartAbandoned || event.AggregateType != enums.AggregateCart {
		t.Fatalf("unexpected event classification %+v", event)
	}
	if event.AggregateID != session {
		t.Fatalf("unexpected aggregate id %s", event.AggregateID)
	}
	payload, ok := event.Data.(payloads.CartAbandonedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Data)
	}
	if payload.CartSession != session.String() || payload.ItemCount != 2 || !payload.LastTouched.Equal(touched) {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if len(tracker.forgotten) != 1 || tracker.forgotten[0] != session.String() {
		t.Fatalf("swept cart should leave the index, forgot %v", tracker.forgotten)
	}
}

func TestSweepDropsMalformedSessions(t *testing.T) {
	tracker := &fakeAbandonedSource{carts: []AbandonedCart{
		{Session: "not-a-uuid", ItemCount: 1},
	}}
	emitter := &recordingEmitter{}
	sweeper := newTestSweeper(t, tracker, emitter)

	if err := sweeper.sweepOnce(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("malformed session must not emit, got %v", emitter.events)
	}
	if len(tracker.forgotten) != 1 || tracker.forgotten[0] != "not-a-uuid" {
		t.Fatalf("malformed session should be dropped, forgot %v", tracker.forgotten)
	}
}

func TestSweepKeepsCartWhenEmitFails(t *testing.T) {
	session := uuid.NewString()
	tracker := &fakeAbandonedSource{carts: []AbandonedCart{
		{Session: session, ItemCount: 1},
	}}
	emitter := &recordingEmitter{err: errors.New("db down")}
	sweeper := newTestSweeper(t, tracker, emitter)

	if err := sweeper.sweepOnce(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(tracker.forgotten) != 0 {
		t.Fatalf("failed emit must keep the cart for retry, forgot %v", tracker.forgotten)
	}
}
