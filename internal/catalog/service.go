package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/simryo/storefront-backend/pkg/db/models"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/types"
	"gorm.io/gorm"
)

type catalogRepository interface {
	ListCountries(ctx context.Context) ([]models.Country, error)
	FindCountry(ctx context.Context, id int) (*models.Country, error)
	FindPlan(ctx context.Context, countryID, position int) (*models.Plan, error)
}

// Service exposes catalog read operations for the storefront.
type Service interface {
	ListCountries(ctx context.Context) ([]CountryDTO, error)
	GetCountry(ctx context.Context, id int) (*CountryDTO, error)
	ResolveSelection(ctx context.Context, countryID, planIndex, quantity int) (*types.CartLineItem, error)
}

type service struct {
	repo catalogRepository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// ListCountries returns the full destination catalog.
func (s *service) ListCountries(ctx context.Context) ([]CountryDTO, error) {
	countries, err := s.repo.ListCountries(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load catalog")
	}
	out := make([]CountryDTO, 0, len(countries))
	for _, c := range countries {
		out = append(out, countryFromModel(c))
	}
	return out, nil
}

// GetCountry returns a single destination with its plans.
func (s *service) GetCountry(ctx context.Context, id int) (*CountryDTO, error) {
	country, err := s.repo.FindCountry(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "country not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load country")
	}
	dto := countryFromModel(*country)
	return &dto, nil
}

// ResolveSelection validates a (country, plan slot) pair against the live
// catalog and returns the cart line item snapshot for it.
func (s *service) ResolveSelection(ctx context.Context, countryID, planIndex, quantity int) (*types.CartLineItem, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	country, err := s.repo.FindCountry(ctx, countryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "country not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load country")
	}
	plan, err := s.repo.FindPlan(ctx, countryID, planIndex)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found for country")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load plan")
	}
	return &types.CartLineItem{
		CountryID:   country.ID,
		CountryName: country.Name,
		Flag:        country.Flag,
		PlanIndex:   plan.Position,
		Quantity:    quantity,
		PlanData:    PlanData(*country, *plan),
	}, nil
}
