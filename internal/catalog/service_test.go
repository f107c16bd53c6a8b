package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/simryo/storefront-backend/pkg/db/models"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

type stubCatalogRepo struct {
	countries map[int]*models.Country
	plans     map[string]*models.Plan
}

func (s *stubCatalogRepo) ListCountries(_ context.Context) ([]models.Country, error) {
	out := make([]models.Country, 0, len(s.countries))
	for _, c := range s.countries {
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubCatalogRepo) FindCountry(_ context.Context, id int) (*models.Country, error) {
	c, ok := s.countries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (s *stubCatalogRepo) FindPlan(_ context.Context, countryID, position int) (*models.Plan, error) {
	p, ok := s.plans[planKey(countryID, position)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func planKey(countryID, position int) string {
	return fmt.Sprintf("%d:%d", countryID, position)
}

func newStubRepo() *stubCatalogRepo {
	france := &models.Country{ID: 1, Name: "France", Flag: "🇫🇷"}
	return &stubCatalogRepo{
		countries: map[int]*models.Country{1: france},
		plans: map[string]*models.Plan{
			planKey(1, 3): {
				CountryID:      1,
				Position:       3,
				DataAmount:     "10GB",
				Days:           30,
				PriceCents:     2299,
				ProviderName:   "esim-go",
				ProviderAPIKey: "env:ESIM_GO_API_KEY",
				Active:         true,
			},
		},
	}
}

func TestResolveSelectionBuildsLineItemSnapshot(t *testing.T) {
	svc, err := NewService(newStubRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	item, err := svc.ResolveSelection(context.Background(), 1, 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.CountryName != "France" || item.PlanIndex != 3 || item.Quantity != 2 {
		t.Fatalf("unexpected line item: %+v", item)
	}
	if item.PlanData.Price != 22.99 {
		t.Fatalf("expected EUR price 22.99, got %v", item.PlanData.Price)
	}
	if item.PlanData.Provider.Name != "esim-go" {
		t.Fatalf("expected provider snapshot, got %+v", item.PlanData.Provider)
	}
	if item.Key() != "1:3" {
		t.Fatalf("unexpected cart key %q", item.Key())
	}
}

func TestResolveSelectionRejectsUnknownReferences(t *testing.T) {
	svc, err := NewService(newStubRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cases := []struct {
		name      string
		countryID int
		planIndex int
		quantity  int
		wantCode  pkgerrors.Code
	}{
		{name: "zero quantity", countryID: 1, planIndex: 3, quantity: 0, wantCode: pkgerrors.CodeValidation},
		{name: "missing country", countryID: 42, planIndex: 0, quantity: 1, wantCode: pkgerrors.CodeNotFound},
		{name: "missing plan slot", countryID: 1, planIndex: 7, quantity: 1, wantCode: pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ResolveSelection(context.Background(), tc.countryID, tc.planIndex, tc.quantity)
			domainErr := pkgerrors.As(err)
			if domainErr == nil {
				t.Fatalf("expected domain error, got %v", err)
			}
			if domainErr.Code() != tc.wantCode {
				t.Fatalf("expected code %s, got %s", tc.wantCode, domainErr.Code())
			}
		})
	}
}

func TestGetCountryMapsNotFound(t *testing.T) {
	svc, err := NewService(newStubRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.GetCountry(context.Background(), 404); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	dto, err := svc.GetCountry(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Name != "France" {
		t.Fatalf("unexpected country %+v", dto)
	}
}
