package checkout

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceComputesLineTotalsAndVAT(t *testing.T) {
	lines := []PricedLine{
		{ProductID: 1, Quantity: 2, UnitPrice: peso("120.00")},
		{ProductID: 2, Quantity: 3, UnitPrice: peso("25.50")},
	}
	p := price(lines, DefaultTaxRate)

	assert.True(t, p.Lines[0].LineTotal.Equal(peso("240.00")))
	assert.True(t, p.Lines[1].LineTotal.Equal(peso("76.50")))
	assert.True(t, p.Subtotal.Equal(peso("316.50")))
	assert.True(t, p.Tax.Equal(peso("37.98")))
	assert.True(t, p.Total.Equal(peso("354.48")))
}

func TestPriceRoundsTaxHalfUp(t *testing.T) {
	// 1.00 at 12.5% gives exactly half a centavo of tax; half-up rounding
	// must push it to 0.13, not truncate to 0.12.
	p := price([]PricedLine{{ProductID: 1, Quantity: 1, UnitPrice: peso("1.00")}}, peso("0.125"))
	assert.True(t, p.Tax.Equal(peso("0.13")), "tax %s", p.Tax)
	assert.True(t, p.Total.Equal(peso("1.13")))
}

func TestPriceZeroRate(t *testing.T) {
	p := price([]PricedLine{{ProductID: 1, Quantity: 4, UnitPrice: peso("9.75")}}, decimal.Zero)
	assert.True(t, p.Subtotal.Equal(peso("39.00")))
	assert.True(t, p.Tax.Equal(decimal.Zero))
	assert.True(t, p.Total.Equal(peso("39.00")))
}

func TestPriceEmptyLines(t *testing.T) {
	p := price(nil, DefaultTaxRate)
	assert.True(t, p.Subtotal.IsZero())
	assert.True(t, p.Tax.IsZero())
	assert.True(t, p.Total.IsZero())
}

func TestDefaultTaxRateUsedWhenSettingsMissing(t *testing.T) {
	svc := NewService(nil, cashier(), nil, nil)
	rate := svc.taxRate(context.Background())
	require.True(t, rate.Equal(peso("0.12")))
}
