package types

// OrderDraft is everything the order finalizer needs to build the durable
// completed-order record after a successful payment confirmation.
type OrderDraft struct {
	CartSession          string
	Customer             CustomerInfo
	Items                []CartLineItem
	PaymentProvider      string
	PaymentRef           string
	ReferenceCurrency    string
	ReferenceTotalCents  int
	SettlementCurrency   string
	SettlementTotalCents int
}
