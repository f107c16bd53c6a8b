package orders

import (
	"time"

	"github.com/simryo/storefront-backend/internal/currency"
	"github.com/simryo/storefront-backend/pkg/db/models"
	"github.com/simryo/storefront-backend/pkg/enums"
	"github.com/simryo/storefront-backend/pkg/types"
)

// ItemResultDTO is one per-item provisioning result on the confirmation view.
type ItemResultDTO struct {
	Success        bool     `json:"success"`
	OrderID        string   `json:"orderId"`
	CountryName    string   `json:"countryName"`
	Flag           string   `json:"flag"`
	Data           string   `json:"data"`
	Days           int      `json:"days"`
	Price          float64  `json:"price"`
	Quantity       int      `json:"quantity"`
	QRCodeURL      string   `json:"qrCodeUrl,omitempty"`
	ActivationCode string   `json:"activationCode,omitempty"`
	Instructions   []string `json:"instructions,omitempty"`
	Status         string   `json:"status"`
	FailureReason  string   `json:"failureReason,omitempty"`
}

// ConfirmationDTO is the completed order as rendered after checkout.
type ConfirmationDTO struct {
	OrderID          string             `json:"orderId"`
	Status           string             `json:"status"`
	Customer         types.CustomerInfo `json:"customerInfo"`
	Items            []ItemResultDTO    `json:"data"`
	ReferenceTotal   float64            `json:"referenceTotal"`
	SettlementTotal  float64            `json:"settlementTotal"`
	SettlementAmount string             `json:"settlementDisplay"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// SummaryDTO is one row in the order history listing.
type SummaryDTO struct {
	OrderID         string    `json:"orderId"`
	Status          string    `json:"status"`
	ItemCount       int       `json:"itemCount"`
	SettlementTotal float64   `json:"settlementTotal"`
	Currency        string    `json:"currency"`
	CreatedAt       time.Time `json:"createdAt"`
}

func itemResultFromModel(item models.OrderItem) ItemResultDTO {
	price, _ := currency.FromCents(item.UnitPriceCents).Round(2).Float64()
	dto := ItemResultDTO{
		Success:     item.Status == enums.OrderItemStatusCompleted,
		OrderID:     item.OrderID.String(),
		CountryName: item.CountryName,
		Flag:        item.Flag,
		Data:        item.DataAmount,
		Days:        item.Days,
		Price:       price,
		Quantity:    item.Quantity,
		Status:      string(item.Status),
	}
	if item.QRCodeURL != nil {
		dto.QRCodeURL = *item.QRCodeURL
	}
	if item.ActivationCode != nil {
		dto.ActivationCode = *item.ActivationCode
	}
	if len(item.Instructions) > 0 {
		dto.Instructions = append(dto.Instructions, item.Instructions...)
	}
	if item.FailureReason != nil {
		dto.FailureReason = *item.FailureReason
	}
	return dto
}

func confirmationFromModel(order *models.Order) *ConfirmationDTO {
	items := make([]ItemResultDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemResultFromModel(item))
	}
	referenceTotal, _ := currency.FromCents(order.ReferenceTotalCents).Round(2).Float64()
	settlementDecimal := currency.FromCents(order.SettlementTotalCents).Round(2)
	settlementTotal, _ := settlementDecimal.Float64()
	return &ConfirmationDTO{
		OrderID: order.ID.String(),
		Status:  string(order.Status),
		Customer: types.CustomerInfo{
			Email: order.CustomerEmail,
			Name:  order.CustomerName,
		},
		Items:            items,
		ReferenceTotal:   referenceTotal,
		SettlementTotal:  settlementTotal,
		SettlementAmount: currency.Format(settlementDecimal, order.SettlementCurrency),
		CreatedAt:        order.CreatedAt,
	}
}

func summaryFromModel(order models.Order) SummaryDTO {
	settlementTotal, _ := currency.FromCents(order.SettlementTotalCents).Round(2).Float64()
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	return SummaryDTO{
		OrderID:         order.ID.String(),
		Status:          string(order.Status),
		ItemCount:       count,
		SettlementTotal: settlementTotal,
		Currency:        string(order.SettlementCurrency),
		CreatedAt:       order.CreatedAt,
	}
}
