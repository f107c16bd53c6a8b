package catalog

import (
	"context"

	"github.com/simryo/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes catalog persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListCountries returns every destination with its active plans, ordered for
// stable storefront rendering.
func (r *Repository) ListCountries(ctx context.Context) ([]models.Country, error) {
	var countries []models.Country
	err := r.db.WithContext(ctx).
		Preload("Plans", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("position ASC")
		}).
		Order("name ASC").
		Find(&countries).Error
	if err != nil {
		return nil, err
	}
	return countries, nil
}

// FindCountry loads a single destination with its active plans.
func (r *Repository) FindCountry(ctx context.Context, id int) (*models.Country, error) {
	var country models.Country
	err := r.db.WithContext(ctx).
		Preload("Plans", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("position ASC")
		}).
		First(&country, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &country, nil
}

// FindPlan resolves a cart reference (country, plan slot) to the plan row.
func (r *Repository) FindPlan(ctx context.Context, countryID, position int) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).
		Where("country_id = ? AND position = ? AND active = ?", countryID, position, true).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
