package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/simryo/storefront-backend/pkg/enums"
)

// Order is the durable record produced when a payment settles. Amounts are
// stored twice: the EUR reference total the catalog prices in, and the USD
// settlement total actually charged.
type Order struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID               *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	CustomerEmail        string            `gorm:"column:customer_email;type:text;not null;index"`
	CustomerName         string            `gorm:"column:customer_name;type:text;not null"`
	CartSession          string            `gorm:"column:cart_session;type:text;not null"`
	Status               enums.OrderStatus `gorm:"column:status;type:text;not null"`
	PaymentProvider      string            `gorm:"column:payment_provider;type:text;not null"`
	PaymentRef           string            `gorm:"column:payment_ref;type:text;not null;uniqueIndex"`
	ReferenceCurrency    enums.Currency    `gorm:"column:reference_currency;type:text;not null;default:'EUR'"`
	ReferenceTotalCents  int               `gorm:"column:reference_total_cents;not null"`
	SettlementCurrency   enums.Currency    `gorm:"column:settlement_currency;type:text;not null;default:'USD'"`
	SettlementTotalCents int               `gorm:"column:settlement_total_cents;not null"`
	Items                []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
