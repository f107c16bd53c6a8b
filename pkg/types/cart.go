package types

import "fmt"

// ProviderRef identifies the upstream eSIM provisioning collaborator for a plan.
type ProviderRef struct {
	Name   string `json:"name"`
	APIKey string `json:"apiKey,omitempty"`
}

// PlanData is the catalog snapshot embedded in a cart line item. Price is in
// the reference currency (EUR); conversion to the settlement currency happens
// once, at checkout-session build time.
type PlanData struct {
	Data     string      `json:"data" validate:"required"`
	Days     int         `json:"days" validate:"required,min=1"`
	Price    float64     `json:"price" validate:"min=0"`
	Provider ProviderRef `json:"provider"`
}

// CartLineItem is one (country, plan, quantity) selection pending purchase.
// The stored cart is a JSON array of these; the pair (countryId, planIndex)
// is unique within a cart.
type CartLineItem struct {
	CountryID   int      `json:"countryId" validate:"required,min=1"`
	CountryName string   `json:"countryName" validate:"required"`
	Flag        string   `json:"flag"`
	PlanIndex   int      `json:"planIndex" validate:"min=0"`
	Quantity    int      `json:"quantity" validate:"required,min=1"`
	PlanData    PlanData `json:"planData" validate:"required"`
}

// Key returns the cart-unique identity of the selection.
func (i CartLineItem) Key() string {
	return fmt.Sprintf("%d:%d", i.CountryID, i.PlanIndex)
}

// CustomerInfo is captured during the payment step and stored on the order.
type CustomerInfo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
