package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a shopper identity backfilled from checkout. Checkout is guest-first,
// so users exist only to attach order history to a verified email.
type User struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email      string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name       string     `gorm:"column:name;type:text;not null"`
	LastSeenAt *time.Time `gorm:"column:last_seen_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
