package currency

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/simryo/storefront-backend/pkg/config"
	"github.com/simryo/storefront-backend/pkg/enums"
)

// Converter applies the configured EUR->USD rate. Catalog prices are
// canonically EUR; settlement happens in USD. Conversion always runs
// server-side so a client can never supply its own rate.
type Converter struct {
	eurToUSD decimal.Decimal
}

// New parses the configured rate and validates it.
func New(cfg config.CurrencyConfig) (*Converter, error) {
	rate, err := decimal.NewFromString(cfg.EURToUSD)
	if err != nil {
		return nil, fmt.Errorf("parsing EUR->USD rate %q: %w", cfg.EURToUSD, err)
	}
	if rate.Sign() <= 0 {
		return nil, fmt.Errorf("EUR->USD rate must be positive, got %s", rate)
	}
	return &Converter{eurToUSD: rate}, nil
}

// Rate returns the active EUR->USD rate.
func (c *Converter) Rate() decimal.Decimal {
	return c.eurToUSD
}

// Convert translates an amount between the supported currencies, rounding
// half-up to two decimal places.
func (c *Converter) Convert(amount decimal.Decimal, from, to enums.Currency) (decimal.Decimal, error) {
	if !from.IsValid() || !to.IsValid() {
		return decimal.Zero, fmt.Errorf("unsupported currency pair %s->%s", from, to)
	}
	if from == to {
		return amount.Round(2), nil
	}
	switch {
	case from == enums.CurrencyEUR && to == enums.CurrencyUSD:
		return amount.Mul(c.eurToUSD).Round(2), nil
	case from == enums.CurrencyUSD && to == enums.CurrencyEUR:
		return amount.Div(c.eurToUSD).Round(2), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported currency pair %s->%s", from, to)
	}
}

// EURToUSD is the settlement-path shortcut used by checkout.
func (c *Converter) EURToUSD(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(c.eurToUSD).Round(2)
}

// Format renders an amount with its currency symbol, e.g. "€22.99".
func Format(amount decimal.Decimal, cur enums.Currency) string {
	return cur.Symbol() + amount.Round(2).StringFixed(2)
}

// Cents converts a two-decimal amount into integer cents for storage.
func Cents(amount decimal.Decimal) int {
	return int(amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart())
}

// FromCents converts stored integer cents back into a decimal amount.
func FromCents(cents int) decimal.Decimal {
	return decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100))
}
