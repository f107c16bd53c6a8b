package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/simryo/storefront-backend/pkg/outbox/payloads"
)

// StorefrontEventRow mirrors the storefront_events BigQuery schema.
type StorefrontEventRow struct {
	EventID              string             `bigquery:"event_id"`
	EventType            string             `bigquery:"event_type"`
	OccurredAt           time.Time          `bigquery:"occurred_at"`
	OrderID              *string            `bigquery:"order_id"`
	CartSession          *string            `bigquery:"cart_session"`
	OrderStatus          *string            `bigquery:"order_status"`
	PaymentProvider      *string            `bigquery:"payment_provider"`
	SettlementTotalCents *int64             `bigquery:"settlement_total_cents"`
	SettlementCurrency   *string            `bigquery:"settlement_currency"`
	ItemCount            *int64             `bigquery:"item_count"`
	FailedItemCount      *int64             `bigquery:"failed_item_count"`
	Payload              cbigquery.NullJSON `bigquery:"payload"`
}

// RowFromOrderConfirmed flattens an order confirmation into a storefront event row.
// Customer email stays out of the warehouse; the order row is the system of record.
func RowFromOrderConfirmed(eventID string, occurredAt time.Time, ev payloads.OrderConfirmedEvent) (StorefrontEventRow, error) {
	payload, err := EncodeJSON(struct {
		OrderID         string `json:"order_id"`
		Status          string `json:"status"`
		PaymentProvider string `json:"payment_provider"`
		ItemCount       int    `json:"item_count"`
		FailedItemCount int    `json:"failed_item_count"`
	}{
		OrderID:         ev.OrderID.String(),
		Status:          string(ev.Status),
		PaymentProvider: ev.PaymentProvider,
		ItemCount:       ev.ItemCount,
		FailedItemCount: ev.FailedItemCount,
	})
	if err != nil {
		return StorefrontEventRow{}, err
	}

	orderID := ev.OrderID.String()
	status := string(ev.Status)
	currency := string(ev.SettlementCurrency)

	return StorefrontEventRow{
		EventID:              eventID,
		EventType:            "order_confirmed",
		OccurredAt:           occurredAt.UTC(),
		OrderID:              &orderID,
		CartSession:          optionalString(ev.CartSession),
		OrderStatus:          &status,
		PaymentProvider:      optionalString(ev.PaymentProvider),
		SettlementTotalCents: optionalInt64(int64(ev.SettlementTotalCents)),
		SettlementCurrency:   optionalString(currency),
		ItemCount:            optionalInt64(int64(ev.ItemCount)),
		FailedItemCount:      optionalInt64(int64(ev.FailedItemCount)),
		Payload:              payload,
	}, nil
}

// RowFromCartAbandoned flattens a cart abandonment into a storefront event row.
func RowFromCartAbandoned(eventID string, occurredAt time.Time, ev payloads.CartAbandonedEvent) (StorefrontEventRow, error) {
	payload, err := EncodeJSON(ev)
	if err != nil {
		return StorefrontEventRow{}, err
	}

	return StorefrontEventRow{
		EventID:     eventID,
		EventType:   "cart_abandoned",
		OccurredAt:  occurredAt.UTC(),
		CartSession: optionalString(ev.CartSession),
		ItemCount:   optionalInt64(int64(ev.ItemCount)),
		Payload:     payload,
	}, nil
}

// EncodeJSON serializes the provided payload so it can be stored in BigQuery JSON columns.
func EncodeJSON(payload any) (cbigquery.NullJSON, error) {
	switch value := payload.(type) {
	case nil:
		return cbigquery.NullJSON{}, nil
	case cbigquery.NullJSON:
		return value, nil
	case json.RawMessage:
		if len(value) == 0 {
			return cbigquery.NullJSON{}, nil
		}
		return cbigquery.NullJSON{Valid: true, JSONVal: string(value)}, nil
	case []byte:
		if len(value) == 0 {
			return cbigquery.NullJSON{}, nil
		}
		return cbigquery.NullJSON{Valid: true, JSONVal: string(value)}, nil
	}

	marshaled, err := json.Marshal(payload)
	if err != nil {
		return cbigquery.NullJSON{}, fmt.Errorf("marshal json: %w", err)
	}
	if len(marshaled) == 0 {
		return cbigquery.NullJSON{}, nil
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(marshaled)}, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt64(v int64) *int64 {
	return &v
}
