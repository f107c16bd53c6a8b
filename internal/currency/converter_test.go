package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simryo/storefront-backend/pkg/config"
	"github.com/simryo/storefront-backend/pkg/enums"
)

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	conv, err := New(config.CurrencyConfig{EURToUSD: "1.087"})
	require.NoError(t, err)
	return conv
}

func TestNewRejectsBadRates(t *testing.T) {
	_, err := New(config.CurrencyConfig{EURToUSD: "not-a-number"})
	assert.Error(t, err)

	_, err = New(config.CurrencyConfig{EURToUSD: "0"})
	assert.Error(t, err)

	_, err = New(config.CurrencyConfig{EURToUSD: "-1.1"})
	assert.Error(t, err)
}

func TestEURToUSDRoundsHalfUp(t *testing.T) {
	conv := newTestConverter(t)

	// 22.99 * 1.087 = 24.99013 -> 24.99
	got := conv.EURToUSD(decimal.RequireFromString("22.99"))
	assert.Equal(t, "24.99", got.StringFixed(2))

	// 10.00 * 1.087 = 10.87
	got = conv.EURToUSD(decimal.RequireFromString("10.00"))
	assert.Equal(t, "10.87", got.StringFixed(2))

	// 0.05 * 1.087 = 0.05435 -> 0.05
	got = conv.EURToUSD(decimal.RequireFromString("0.05"))
	assert.Equal(t, "0.05", got.StringFixed(2))
}

func TestConvertPairs(t *testing.T) {
	conv := newTestConverter(t)

	same, err := conv.Convert(decimal.RequireFromString("5.555"), enums.CurrencyEUR, enums.CurrencyEUR)
	require.NoError(t, err)
	assert.Equal(t, "5.56", same.StringFixed(2))

	usd, err := conv.Convert(decimal.RequireFromString("22.99"), enums.CurrencyEUR, enums.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, "24.99", usd.StringFixed(2))

	eur, err := conv.Convert(decimal.RequireFromString("10.87"), enums.CurrencyUSD, enums.CurrencyEUR)
	require.NoError(t, err)
	assert.Equal(t, "10.00", eur.StringFixed(2))

	_, err = conv.Convert(decimal.Zero, enums.Currency("GBP"), enums.CurrencyUSD)
	assert.Error(t, err)
}

func TestFormatUsesSymbols(t *testing.T) {
	assert.Equal(t, "€22.99", Format(decimal.RequireFromString("22.99"), enums.CurrencyEUR))
	assert.Equal(t, "$24.99", Format(decimal.RequireFromString("24.99"), enums.CurrencyUSD))
	assert.Equal(t, "$7.00", Format(decimal.RequireFromString("7"), enums.CurrencyUSD))
}

func TestCentsRoundTrip(t *testing.T) {
	assert.Equal(t, 2299, Cents(decimal.RequireFromString("22.99")))
	assert.Equal(t, "22.99", FromCents(2299).StringFixed(2))
	assert.Equal(t, 0, Cents(decimal.Zero))
}
