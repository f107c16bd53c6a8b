package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/simryo/storefront-backend/internal/currency"
	"github.com/simryo/storefront-backend/pkg/config"
	"github.com/simryo/storefront-backend/pkg/enums"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
	"github.com/simryo/storefront-backend/pkg/types"
)

type stubCartLoader struct {
	items map[string][]types.CartLineItem
	err   error
}

func (s *stubCartLoader) ValidItems(_ context.Context, session string) ([]types.CartLineItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items[session], nil
}

type stubGateway struct {
	gotAmountCents int
	gotCurrency    enums.Currency
	calls          int
	err            error
}

func (s *stubGateway) CreateAuthorization(_ context.Context, amountCents int, cur enums.Currency) (*Authorization, error) {
	s.calls++
	s.gotAmountCents = amountCents
	s.gotCurrency = cur
	if s.err != nil {
		return nil, s.err
	}
	return &Authorization{Provider: "stripe", Reference: "pi_123", ClientSecret: "pi_123_secret"}, nil
}

type memorySessionRepo struct {
	saved map[string]*PaymentSession
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{saved: map[string]*PaymentSession{}}
}

func (m *memorySessionRepo) Save(_ context.Context, session *PaymentSession) error {
	copied := *session
	m.saved[session.ID] = &copied
	return nil
}

func (m *memorySessionRepo) Find(_ context.Context, sessionID string) (*PaymentSession, error) {
	session, ok := m.saved[sessionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found or expired")
	}
	copied := *session
	return &copied, nil
}

func japanItem(quantity int) types.CartLineItem {
	return types.CartLineItem{
		CountryID:   5,
		CountryName: "Japan",
		Flag:        "🇯🇵",
		PlanIndex:   2,
		Quantity:    quantity,
		PlanData: types.PlanData{
			Data:     "8GB",
			Days:     30,
			Price:    22.99,
			Provider: types.ProviderRef{Name: "esim-go"},
		},
	}
}

func newBuilder(t *testing.T, cart *stubCartLoader, gw *stubGateway, repo *memorySessionRepo) Service {
	t.Helper()
	converter, err := currency.New(config.CurrencyConfig{EURToUSD: "1.087"})
	if err != nil {
		t.Fatalf("new converter: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(cart, repo, converter, gw, nil, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestBuildSessionConvertsOnceAndAuthorizesSettlementTotal(t *testing.T) {
	cart := &stubCartLoader{items: map[string][]types.CartLineItem{
		"sess-1": {japanItem(1)},
	}}
	gw := &stubGateway{}
	repo := newMemorySessionRepo()
	svc := newBuilder(t, cart, gw, repo)

	dto, err := svc.BuildSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("build session: %v", err)
	}

	// 22.99 EUR at 1.087 rounds half-up to 24.99 USD.
	if gw.gotAmountCents != 2499 {
		t.Fatalf("expected gateway amount 2499 cents, got %d", gw.gotAmountCents)
	}
	if gw.gotCurrency != enums.CurrencyUSD {
		t.Fatalf("expected USD settlement, got %s", gw.gotCurrency)
	}
	if gw.calls != 1 {
		t.Fatalf("expected exactly one authorization call, got %d", gw.calls)
	}
	if dto.Amount != 24.99 {
		t.Fatalf("expected response amount 24.99, got %v", dto.Amount)
	}
	if dto.DisplayTotal != "$24.99" {
		t.Fatalf("expected display total $24.99, got %q", dto.DisplayTotal)
	}
	if dto.ReferenceTotal != 22.99 {
		t.Fatalf("expected reference total 22.99, got %v", dto.ReferenceTotal)
	}
	if dto.ClientSecret != "pi_123_secret" {
		t.Fatalf("expected gateway client secret, got %q", dto.ClientSecret)
	}

	stored, err := svc.GetSession(context.Background(), dto.SessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored.AmountCents != 2499 || stored.ReferenceTotalCents != 2299 {
		t.Fatalf("stored totals mismatch: %+v", stored)
	}
	if stored.State != enums.PaymentSessionCreated {
		t.Fatalf("expected created state, got %s", stored.State)
	}
	if stored.Fingerprint == "" {
		t.Fatal("expected cart fingerprint on session")
	}
}

func TestBuildSessionRejectsEmptyCart(t *testing.T) {
	cart := &stubCartLoader{items: map[string][]types.CartLineItem{}}
	gw := &stubGateway{}
	svc := newBuilder(t, cart, gw, newMemorySessionRepo())

	_, err := svc.BuildSession(context.Background(), "sess-1")
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway must not be called for empty carts, got %d calls", gw.calls)
	}
}

func TestBuildSessionSurfacesGatewayFailure(t *testing.T) {
	cart := &stubCartLoader{items: map[string][]types.CartLineItem{
		"sess-1": {japanItem(1)},
	}}
	gw := &stubGateway{err: pkgerrors.New(pkgerrors.CodeDependency, "gateway unavailable")}
	repo := newMemorySessionRepo()
	svc := newBuilder(t, cart, gw, repo)

	_, err := svc.BuildSession(context.Background(), "sess-1")
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(repo.saved) != 0 {
		t.Fatalf("no session may be persisted on gateway failure, got %d", len(repo.saved))
	}
}

func TestFingerprintChangesWithCartContents(t *testing.T) {
	one, err := FingerprintItems([]types.CartLineItem{japanItem(1)})
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	two, err := FingerprintItems([]types.CartLineItem{japanItem(2)})
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	same, err := FingerprintItems([]types.CartLineItem{japanItem(1)})
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if one == two {
		t.Fatal("quantity change must alter the fingerprint")
	}
	if one != same {
		t.Fatal("identical snapshots must share a fingerprint")
	}
}
