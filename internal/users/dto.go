package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/simryo/storefront-backend/pkg/db/models"
)

// UserDTO is the transport shape for the authenticated shopper profile.
type UserDTO struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		LastSeenAt: u.LastSeenAt,
		CreatedAt:  u.CreatedAt,
	}
}
