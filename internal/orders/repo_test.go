package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/simryo/storefront-backend/pkg/db/models"
	"github.com/simryo/storefront-backend/pkg/enums"
)

func newOrdersDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	stmts := []string{
		`CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			customer_email TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			cart_session TEXT NOT NULL,
			status TEXT NOT NULL,
			payment_provider TEXT NOT NULL,
			payment_ref TEXT NOT NULL UNIQUE,
			reference_currency TEXT NOT NULL DEFAULT 'EUR',
			reference_total_cents INTEGER NOT NULL,
			settlement_currency TEXT NOT NULL DEFAULT 'USD',
			settlement_total_cents INTEGER NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			country_id INTEGER NOT NULL,
			country_name TEXT NOT NULL,
			flag TEXT NOT NULL,
			plan_index INTEGER NOT NULL,
			data_amount TEXT NOT NULL,
			days INTEGER NOT NULL,
			unit_price_cents INTEGER NOT NULL,
			quantity INTEGER NOT NULL,
			total_cents INTEGER NOT NULL,
			provider_name TEXT NOT NULL,
			status TEXT NOT NULL,
			qr_code_url TEXT,
			activation_code TEXT,
			instructions TEXT,
			failure_reason TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func sampleOrder(email, paymentRef string, createdAt time.Time) *models.Order {
	qr := "https://qr.example/japan"
	code := "SIM-ABC123"
	return &models.Order{
		ID:                   uuid.New(),
		CustomerEmail:        email,
		CustomerName:         "Buyer",
		CartSession:          "sess-1",
		Status:               enums.OrderStatusCompleted,
		PaymentProvider:      "stripe",
		PaymentRef:           paymentRef,
		ReferenceCurrency:    enums.CurrencyEUR,
		ReferenceTotalCents:  2299,
		SettlementCurrency:   enums.CurrencyUSD,
		SettlementTotalCents: 2499,
		CreatedAt:            createdAt,
		Items: []models.OrderItem{{
			ID:             uuid.New(),
			CountryID:      5,
			CountryName:    "Japan",
			Flag:           "🇯🇵",
			PlanIndex:      2,
			DataAmount:     "8GB",
			Days:           30,
			UnitPriceCents: 2299,
			Quantity:       1,
			TotalCents:     2299,
			ProviderName:   "esim-go",
			Status:         enums.OrderItemStatusCompleted,
			QRCodeURL:      &qr,
			ActivationCode: &code,
			Instructions:   pq.StringArray{"scan the code", "enable roaming"},
		}},
	}
}

func TestRepositoryCreateAndFindByID(t *testing.T) {
	db := newOrdersDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := sampleOrder("buyer@example.com", "pi_1", time.Now().UTC())
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	found, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if found.PaymentRef != "pi_1" || found.Status != enums.OrderStatusCompleted {
		t.Fatalf("unexpected order: %+v", found)
	}
	if len(found.Items) != 1 {
		t.Fatalf("expected items preloaded, got %d", len(found.Items))
	}
	item := found.Items[0]
	if item.CountryName != "Japan" || item.ActivationCode == nil {
		t.Fatalf("unexpected item: %+v", item)
	}
	if len(item.Instructions) != 2 || item.Instructions[0] != "scan the code" {
		t.Fatalf("instructions round trip failed: %v", item.Instructions)
	}
}

func TestRepositoryFindByPaymentRef(t *testing.T) {
	db := newOrdersDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := sampleOrder("buyer@example.com", "pi_unique", time.Now().UTC())
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	found, err := repo.FindByPaymentRef(ctx, "pi_unique")
	if err != nil {
		t.Fatalf("find by payment ref: %v", err)
	}
	if found.ID != order.ID {
		t.Fatalf("expected order %s, got %s", order.ID, found.ID)
	}
}

func TestRepositoryListByEmailPaginates(t *testing.T) {
	db := newOrdersDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		order := sampleOrder("buyer@example.com", fmt.Sprintf("pi_%d", i), base.Add(time.Duration(i)*time.Hour))
		if err := repo.Create(ctx, order); err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
	}
	other := sampleOrder("other@example.com", "pi_other", base)
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("create other order: %v", err)
	}

	first, cursor, err := repo.ListByEmail(ctx, ListOrdersParams{Email: "buyer@example.com", Limit: 2})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(first))
	}
	if cursor == nil {
		t.Fatal("expected next cursor")
	}
	if !first[0].CreatedAt.After(first[1].CreatedAt) {
		t.Fatalf("expected newest first: %v then %v", first[0].CreatedAt, first[1].CreatedAt)
	}

	second, cursor, err := repo.ListByEmail(ctx, ListOrdersParams{Email: "buyer@example.com", Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected 1 order on second page, got %d", len(second))
	}
	if cursor != nil {
		t.Fatalf("expected no further pages, got cursor %+v", cursor)
	}
	if second[0].PaymentRef != "pi_0" {
		t.Fatalf("expected oldest order last, got %s", second[0].PaymentRef)
	}
}
