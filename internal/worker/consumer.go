package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/simryo/storefront-backend/internal/analytics"
	"github.com/simryo/storefront-backend/internal/email"
	"github.com/simryo/storefront-backend/pkg/db/models"
	"github.com/simryo/storefront-backend/pkg/enums"
	"github.com/simryo/storefront-backend/pkg/logger"
	"github.com/simryo/storefront-backend/pkg/outbox/payloads"
)

type orderDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LinkUser(ctx context.Context, orderID, userID uuid.UUID) error
}

type userDirectory interface {
	FindOrCreateByEmail(ctx context.Context, email, name string) (*models.User, error)
	UpdateLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error
}

type activationMailer interface {
	SendActivation(ctx context.Context, msg email.ActivationEmail) (*email.Result, error)
}

type eventSink interface {
	Insert(ctx context.Context, row analytics.StorefrontEventRow) error
}

// Consumer turns published order events into their post-checkout side
// effects: activation email per provisioned item, shopper record backfill,
// and a warehouse row.
type Consumer struct {
	orders orderDirectory
	users  userDirectory
	mailer activationMailer
	sink   eventSink
	logg   *logger.Logger
	now    func() time.Time
}

// NewConsumer wires the post-checkout side effects together.
func NewConsumer(orders orderDirectory, users userDirectory, mailer activationMailer, sink eventSink, logg *logger.Logger) (*Consumer, error) {
	if orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if sink == nil {
		return nil, fmt.Errorf("analytics writer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		orders: orders,
		users:  users,
		mailer: mailer,
		sink:   sink,
		logg:   logg,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Handle dispatches one decoded event. Unknown event types are acked so a
// newer publisher never wedges an older worker.
func (c *Consumer) Handle(ctx context.Context, envelope Envelope) error {
	switch envelope.EventType {
	case enums.EventOrderConfirmed:
		return c.handleOrderConfirmed(ctx, envelope)
	case enums.EventCartAbandoned:
		return c.handleCartAbandoned(ctx, envelope)
	default:
		c.logg.Info(ctx, "event not handled by orders worker")
		return nil
	}
}

func (c *Consumer) handleOrderConfirmed(ctx context.Context, envelope Envelope) error {
	var event payloads.OrderConfirmedEvent
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return fmt.Errorf("decode order_confirmed payload: %w", err)
	}

	order, err := c.orders.FindByID(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", event.OrderID, err)
	}
	logCtx := c.logg.WithOrderID(ctx, order.ID.String())

	user, err := c.users.FindOrCreateByEmail(ctx, order.CustomerEmail, order.CustomerName)
	if err != nil {
		return fmt.Errorf("backfill user: %w", err)
	}
	if order.UserID == nil {
		if err := c.orders.LinkUser(ctx, order.ID, user.ID); err != nil {
			return fmt.Errorf("link order to user: %w", err)
		}
	}
	if err := c.users.UpdateLastSeen(ctx, user.ID, c.now()); err != nil {
		return fmt.Errorf("touch user: %w", err)
	}

	row, err := analytics.RowFromOrderConfirmed(envelope.EventID, envelope.OccurredAt, event)
	if err != nil {
		return fmt.Errorf("build warehouse row: %w", err)
	}
	if err := c.sink.Insert(ctx, row); err != nil {
		return fmt.Errorf("write warehouse row: %w", err)
	}

	for _, item := range order.Items {
		if item.Status != enums.OrderItemStatusCompleted {
			continue
		}
		message := activationEmailFromItem(order, item)
		if _, err := c.mailer.SendActivation(ctx, message); err != nil {
			return fmt.Errorf("send activation for item %s: %w", item.ID, err)
		}
	}

	c.logg.Info(logCtx, "order confirmation processed")
	return nil
}

func (c *Consumer) handleCartAbandoned(ctx context.Context, envelope Envelope) error {
	var event payloads.CartAbandonedEvent
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return fmt.Errorf("decode cart_abandoned payload: %w", err)
	}
	row, err := analytics.RowFromCartAbandoned(envelope.EventID, envelope.OccurredAt, event)
	if err != nil {
		return fmt.Errorf("build warehouse row: %w", err)
	}
	if err := c.sink.Insert(ctx, row); err != nil {
		return fmt.Errorf("write warehouse row: %w", err)
	}
	return nil
}

// activationEmailFromItem snapshots one provisioned plan. Prices go out in
// the catalog's reference currency, matching what the shopper saw in cart.
func activationEmailFromItem(order *models.Order, item models.OrderItem) email.ActivationEmail {
	message := email.ActivationEmail{
		UserEmail:  order.CustomerEmail,
		UserName:   order.CustomerName,
		PlanName:   fmt.Sprintf("%s %s", item.CountryName, item.DataAmount),
		Country:    item.CountryName,
		DataAmount: item.DataAmount,
		Days:       item.Days,
		Price:      float64(item.UnitPriceCents) / 100,
		Currency:   string(order.ReferenceCurrency),
	}
	if item.QRCodeURL != nil {
		message.QRCodeURL = *item.QRCodeURL
	}
	if item.ActivationCode != nil {
		message.ActivationCode = *item.ActivationCode
	}
	return message
}
