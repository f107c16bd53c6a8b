package catalog

import (
	"github.com/simryo/storefront-backend/internal/currency"
	"github.com/simryo/storefront-backend/pkg/db/models"
	"github.com/simryo/storefront-backend/pkg/types"
)

// PlanDTO is the transport shape for a single purchasable plan. Prices are
// EUR floats on the wire; cents internally.
type PlanDTO struct {
	Index    int     `json:"index"`
	Data     string  `json:"data"`
	Days     int     `json:"days"`
	Price    float64 `json:"price"`
	Provider string  `json:"provider"`
}

// CountryDTO is the transport shape for a destination with its plans.
type CountryDTO struct {
	ID     int       `json:"id"`
	Name   string    `json:"name"`
	Flag   string    `json:"flag"`
	Region *string   `json:"region,omitempty"`
	Plans  []PlanDTO `json:"plans"`
}

func planFromModel(p models.Plan) PlanDTO {
	price, _ := currency.FromCents(p.PriceCents).Round(2).Float64()
	return PlanDTO{
		Index:    p.Position,
		Data:     p.DataAmount,
		Days:     p.Days,
		Price:    price,
		Provider: p.ProviderName,
	}
}

func countryFromModel(c models.Country) CountryDTO {
	plans := make([]PlanDTO, 0, len(c.Plans))
	for _, p := range c.Plans {
		plans = append(plans, planFromModel(p))
	}
	return CountryDTO{
		ID:     c.ID,
		Name:   c.Name,
		Flag:   c.Flag,
		Region: c.Region,
		Plans:  plans,
	}
}

// PlanData converts a catalog plan into the snapshot embedded in cart items.
func PlanData(c models.Country, p models.Plan) types.PlanData {
	price, _ := currency.FromCents(p.PriceCents).Round(2).Float64()
	return types.PlanData{
		Data:  p.DataAmount,
		Days:  p.Days,
		Price: price,
		Provider: types.ProviderRef{
			Name:   p.ProviderName,
			APIKey: p.ProviderAPIKey,
		},
	}
}
