package enums

import "fmt"

// OrderStatus tracks the lifecycle of a completed order record.
type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusPartial   OrderStatus = "partial"
)

// IsValid reports whether the status is recognized.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusPartial:
		return true
	default:
		return false
	}
}

// OrderItemStatus tracks provisioning per line item. A failed item does not
// fail the order; it is surfaced per entry on the confirmation view.
type OrderItemStatus string

const (
	OrderItemStatusCompleted OrderItemStatus = "completed"
	OrderItemStatusFailed    OrderItemStatus = "failed"
)

// IsValid reports whether the status is recognized.
func (s OrderItemStatus) IsValid() bool {
	switch s {
	case OrderItemStatusCompleted, OrderItemStatusFailed:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid order status %q", value)
	}
	return status, nil
}
