package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/simryo/storefront-backend/internal/currency"
	"github.com/simryo/storefront-backend/internal/provisioning"
	dbpkg "github.com/simryo/storefront-backend/pkg/db"
	"github.com/simryo/storefront-backend/pkg/db/models"
	"github.com/simryo/storefront-backend/pkg/enums"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
	"github.com/simryo/storefront-backend/pkg/metrics"
	"github.com/simryo/storefront-backend/pkg/outbox"
	"github.com/simryo/storefront-backend/pkg/outbox/payloads"
	"github.com/simryo/storefront-backend/pkg/pagination"
	"github.com/simryo/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type provisioner interface {
	Provision(ctx context.Context, req provisioning.Request) (*provisioning.Artifacts, error)
}

type cartClearer interface {
	Clear(ctx context.Context, session string) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ListResult is one page of order history.
type ListResult struct {
	Orders     []SummaryDTO `json:"orders"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

// Service owns the order lifecycle after a payment settles.
type Service interface {
	Finalize(ctx context.Context, draft types.OrderDraft) (*models.Order, error)
	GetConfirmation(ctx context.Context, orderID uuid.UUID) (*ConfirmationDTO, error)
	ListByEmail(ctx context.Context, email string, params pagination.Params) (*ListResult, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	provisioner provisioner
	cart        cartClearer
	events      eventEmitter
	metrics     *metrics.CheckoutMetrics
	logger      *logger.Logger
}

// NewService wires the order finalizer and read paths.
func NewService(repo Repository, tx txRunner, prov provisioner, cart cartClearer, events eventEmitter, m *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if prov == nil {
		return nil, fmt.Errorf("provisioner required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		provisioner: prov,
		cart:        cart,
		events:      events,
		metrics:     m,
		logger:      logg,
	}, nil
}

// Finalize builds the durable completed-order record: one result entry per
// line item, provisioned individually so a single failed eSIM marks its own
// entry instead of failing the purchase.
func (s *service) Finalize(ctx context.Context, draft types.OrderDraft) (*models.Order, error) {
	if len(draft.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order draft has no items")
	}
	if draft.Customer.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if draft.PaymentRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}

	orderID := uuid.New()
	logCtx := s.logger.WithOrderID(s.logger.WithCartSession(ctx, draft.CartSession), orderID.String())

	var provisionErrs error
	failed := 0
	items := make([]models.OrderItem, 0, len(draft.Items))
	for _, line := range draft.Items {
		item := orderItemFromLine(orderID, line)
		artifacts, err := s.provisioner.Provision(ctx, provisioning.Request{
			OrderID:     orderID,
			CountryName: line.CountryName,
			DataAmount:  line.PlanData.Data,
			Days:        line.PlanData.Days,
			Provider:    line.PlanData.Provider,
		})
		if err != nil {
			failed++
			reason := provisionFailureReason(err)
			item.Status = enums.OrderItemStatusFailed
			item.FailureReason = &reason
			provisionErrs = multierr.Append(provisionErrs, fmt.Errorf("item %s: %w", line.Key(), err))
			s.metrics.IncItemProvisioned("failed")
		} else {
			item.Status = enums.OrderItemStatusCompleted
			item.QRCodeURL = &artifacts.QRCodeURL
			item.ActivationCode = &artifacts.ActivationCode
			item.Instructions = pq.StringArray(artifacts.Instructions)
			s.metrics.IncItemProvisioned("completed")
		}
		items = append(items, item)
	}
	if provisionErrs != nil {
		s.logger.Warn(s.logger.WithField(logCtx, "errors", provisionErrs.Error()), "some items failed provisioning")
	}

	status := enums.OrderStatusCompleted
	if failed > 0 {
		status = enums.OrderStatusPartial
	}

	order := &models.Order{
		ID:                   orderID,
		CustomerEmail:        draft.Customer.Email,
		CustomerName:         draft.Customer.Name,
		CartSession:          draft.CartSession,
		Status:               status,
		PaymentProvider:      draft.PaymentProvider,
		PaymentRef:           draft.PaymentRef,
		ReferenceCurrency:    enums.Currency(draft.ReferenceCurrency),
		ReferenceTotalCents:  draft.ReferenceTotalCents,
		SettlementCurrency:   enums.Currency(draft.SettlementCurrency),
		SettlementTotalCents: draft.SettlementTotalCents,
		Items:                items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderConfirmedEvent{
				OrderID:              order.ID,
				CartSession:          order.CartSession,
				CustomerEmail:        order.CustomerEmail,
				Status:               order.Status,
				PaymentProvider:      order.PaymentProvider,
				SettlementTotalCents: order.SettlementTotalCents,
				SettlementCurrency:   order.SettlementCurrency,
				ItemCount:            len(order.Items),
				FailedItemCount:      failed,
			},
		})
	})
	if err != nil {
		// A replayed finalize for the same payment trips the unique index on
		// payment_ref. Hand back the order the first attempt created.
		if dbpkg.IsUniqueViolation(err, "payment_ref") {
			existing, findErr := s.repo.FindByPaymentRef(ctx, draft.PaymentRef)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "failed to load order for settled payment")
			}
			existingCtx := s.logger.WithOrderID(s.logger.WithCartSession(ctx, existing.CartSession), existing.ID.String())
			s.logger.Info(existingCtx, "payment already finalized, returning existing order")
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to persist order")
	}

	// The purchase is complete; the cart must not re-offer bought items.
	// Clearing is best-effort, the cart key expires on its own TTL anyway.
	if err := s.cart.Clear(ctx, draft.CartSession); err != nil {
		s.logger.Error(logCtx, "failed to clear cart after order", err)
	}

	s.logger.Info(logCtx, "order finalized")
	return order, nil
}

// GetConfirmation reads exactly one completed order for the confirmation view.
func (s *service) GetConfirmation(ctx context.Context, orderID uuid.UUID) (*ConfirmationDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
	}
	return confirmationFromModel(order), nil
}

// ListByEmail pages through a customer's order history, newest first.
func (s *service) ListByEmail(ctx context.Context, email string, params pagination.Params) (*ListResult, error) {
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.ListByEmail(ctx, ListOrdersParams{
		Email:  email,
		Limit:  params.Limit,
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list orders")
	}

	result := &ListResult{Orders: make([]SummaryDTO, 0, len(rows))}
	for _, row := range rows {
		result.Orders = append(result.Orders, summaryFromModel(row))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func orderItemFromLine(orderID uuid.UUID, line types.CartLineItem) models.OrderItem {
	unitCents := currency.Cents(decimal.NewFromFloat(line.PlanData.Price))
	return models.OrderItem{
		ID:             uuid.New(),
		OrderID:        orderID,
		CountryID:      line.CountryID,
		CountryName:    line.CountryName,
		Flag:           line.Flag,
		PlanIndex:      line.PlanIndex,
		DataAmount:     line.PlanData.Data,
		Days:           line.PlanData.Days,
		UnitPriceCents: unitCents,
		Quantity:       line.Quantity,
		TotalCents:     unitCents * line.Quantity,
		ProviderName:   line.PlanData.Provider.Name,
	}
}

func provisionFailureReason(err error) string {
	if domainErr := pkgerrors.As(err); domainErr != nil {
		return domainErr.Message()
	}
	return "provisioning failed"
}
