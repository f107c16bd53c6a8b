package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/simryo/storefront-backend/pkg/enums"
)

// OrderConfirmedEvent is emitted when a payment settles and an order lands.
type OrderConfirmedEvent struct {
	OrderID              uuid.UUID         `json:"order_id"`
	CartSession          string            `json:"cart_session"`
	CustomerEmail        string            `json:"customer_email"`
	Status               enums.OrderStatus `json:"status"`
	PaymentProvider      string            `json:"payment_provider"`
	SettlementTotalCents int               `json:"settlement_total_cents"`
	SettlementCurrency   enums.Currency    `json:"settlement_currency"`
	ItemCount            int               `json:"item_count"`
	FailedItemCount      int               `json:"failed_item_count"`
}

// CartAbandonedEvent is emitted when a cart expires without checking out.
type CartAbandonedEvent struct {
	CartSession string    `json:"cart_session"`
	ItemCount   int       `json:"item_count"`
	LastTouched time.Time `json:"last_touched"`
}
