package analytics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/googleapi"

	"github.com/simryo/storefront-backend/pkg/enums"
	"github.com/simryo/storefront-backend/pkg/outbox/payloads"
)

type stubInserter struct {
	calls   []insertCall
	errs    []error
	nextErr int
}

type insertCall struct {
	table string
	rows  int
}

func (s *stubInserter) InsertRows(_ context.Context, table string, rows []any) error {
	s.calls = append(s.calls, insertCall{table: table, rows: len(rows)})
	if s.nextErr < len(s.errs) {
		err := s.errs[s.nextErr]
		s.nextErr++
		return err
	}
	return nil
}

func testConfig() Config {
	return Config{
		Table: "storefront_events",
		RetryPolicy: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaximumBackoff: 2 * time.Millisecond,
		},
	}
}

func sampleRow(t *testing.T) StorefrontEventRow {
	t.Helper()
	row, err := RowFromOrderConfirmed("evt-1", time.Now(), payloads.OrderConfirmedEvent{
		OrderID:              uuid.New(),
		CartSession:          "sess-1",
		CustomerEmail:        "traveler@example.com",
		Status:               enums.OrderStatusCompleted,
		PaymentProvider:      "stripe",
		SettlementTotalCents: 2499,
		SettlementCurrency:   enums.CurrencyUSD,
		ItemCount:            1,
	})
	if err != nil {
		t.Fatalf("build row: %v", err)
	}
	return row
}

func TestInsertFlushesImmediatelyByDefault(t *testing.T) {
	inserter := &stubInserter{}
	w, err := newWriter(inserter, testConfig())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if err := w.Insert(context.Background(), sampleRow(t)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(inserter.calls) != 1 {
		t.Fatalf("expected 1 insert call, got %d", len(inserter.calls))
	}
	if inserter.calls[0].table != "storefront_events" {
		t.Fatalf("unexpected table %q", inserter.calls[0].table)
	}
	if inserter.calls[0].rows != 1 {
		t.Fatalf("expected 1 row, got %d", inserter.calls[0].rows)
	}
}

func TestInsertBuffersUntilBatchSize(t *testing.T) {
	inserter := &stubInserter{}
	cfg := testConfig()
	cfg.BatchSize = 2
	w, err := newWriter(inserter, cfg)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	ctx := context.Background()
	if err := w.Insert(ctx, sampleRow(t)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(inserter.calls) != 0 {
		t.Fatalf("expected no insert before batch fills, got %d", len(inserter.calls))
	}

	if err := w.Insert(ctx, sampleRow(t)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(inserter.calls) != 1 || inserter.calls[0].rows != 2 {
		t.Fatalf("expected one batched insert of 2 rows, got %+v", inserter.calls)
	}

	if err := w.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(inserter.calls) != 1 {
		t.Fatalf("flush of empty buffer should not call insert, got %d calls", len(inserter.calls))
	}
}

func TestInsertRetriesRetryableErrors(t *testing.T) {
	inserter := &stubInserter{
		errs: []error{&googleapi.Error{Code: http.StatusServiceUnavailable}},
	}
	w, err := newWriter(inserter, testConfig())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if err := w.Insert(context.Background(), sampleRow(t)); err != nil {
		t.Fatalf("insert should succeed after retry: %v", err)
	}
	if len(inserter.calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(inserter.calls))
	}
}

func TestInsertStopsOnNonRetryableError(t *testing.T) {
	inserter := &stubInserter{
		errs: []error{errors.New("schema mismatch")},
	}
	w, err := newWriter(inserter, testConfig())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	err = w.Insert(context.Background(), sampleRow(t))
	if err == nil {
		t.Fatal("expected insert error")
	}
	if len(inserter.calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(inserter.calls))
	}
}

func TestInsertGivesUpAfterMaxAttempts(t *testing.T) {
	retryable := &googleapi.Error{Code: http.StatusInternalServerError}
	inserter := &stubInserter{errs: []error{retryable, retryable, retryable}}
	w, err := newWriter(inserter, testConfig())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	err = w.Insert(context.Background(), sampleRow(t))
	if err == nil {
		t.Fatal("expected insert error")
	}
	if len(inserter.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(inserter.calls))
	}
}

func TestRowFromOrderConfirmedOmitsEmail(t *testing.T) {
	row := sampleRow(t)
	if row.EventType != "order_confirmed" {
		t.Fatalf("unexpected event type %q", row.EventType)
	}
	if row.OrderID == nil || *row.OrderID == "" {
		t.Fatal("order id should be set")
	}
	if row.SettlementTotalCents == nil || *row.SettlementTotalCents != 2499 {
		t.Fatalf("unexpected settlement total %v", row.SettlementTotalCents)
	}
	if !row.Payload.Valid {
		t.Fatal("payload should be populated")
	}
	if strings.Contains(row.Payload.JSONVal, "traveler@example.com") {
		t.Fatalf("payload should not carry the customer email: %s", row.Payload.JSONVal)
	}
}
