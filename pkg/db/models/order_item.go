package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/simryo/storefront-backend/pkg/enums"
)

// OrderItem captures the snapshot of each plan within an order, plus the
// provisioning artifacts returned by the eSIM provider. Failed items keep
// their failure reason and carry no activation data.
type OrderItem struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	CountryID      int                   `gorm:"column:country_id;not null"`
	CountryName    string                `gorm:"column:country_name;type:text;not null"`
	Flag           string                `gorm:"column:flag;type:text;not null"`
	PlanIndex      int                   `gorm:"column:plan_index;not null"`
	DataAmount     string                `gorm:"column:data_amount;type:text;not null"`
	Days           int                   `gorm:"column:days;not null"`
	UnitPriceCents int                   `gorm:"column:unit_price_cents;not null"`
	Quantity       int                   `gorm:"column:quantity;not null"`
	TotalCents     int                   `gorm:"column:total_cents;not null"`
	ProviderName   string                `gorm:"column:provider_name;type:text;not null"`
	Status         enums.OrderItemStatus `gorm:"column:status;type:text;not null"`
	QRCodeURL      *string               `gorm:"column:qr_code_url;type:text"`
	ActivationCode *string               `gorm:"column:activation_code;type:text"`
	Instructions   pq.StringArray        `gorm:"column:instructions;type:text[]"`
	FailureReason  *string               `gorm:"column:failure_reason;type:text"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
