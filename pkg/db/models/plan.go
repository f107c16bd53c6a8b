package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a purchasable eSIM data plan for a country. Position is the
// zero-based slot the plan occupies in the country's plan list; cart items
// reference plans by (country_id, position).
type Plan struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CountryID      int       `gorm:"column:country_id;not null;uniqueIndex:idx_plans_country_position"`
	Position       int       `gorm:"column:position;not null;uniqueIndex:idx_plans_country_position"`
	DataAmount     string    `gorm:"column:data_amount;type:text;not null"`
	Days           int       `gorm:"column:days;not null"`
	PriceCents     int       `gorm:"column:price_cents;not null"`
	ProviderName   string    `gorm:"column:provider_name;type:text;not null"`
	ProviderAPIKey string    `gorm:"column:provider_api_key;type:text;not null"`
	Active         bool      `gorm:"column:active;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
