package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palengkeplus/palengke/internal/domain"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// The reconciliation guards run before any row is written, so they are
// exercised here without a database connection.
func TestRecordSaleRejectsUnreconciledMoney(t *testing.T) {
	repo := NewSaleRepository(nil)
	ctx := context.Background()

	goodLines := []domain.SaleLine{
		{ProductID: 1, Quantity: 2, UnitPrice: money("120.00"), LineTotal: money("240.00")},
	}

	_, err := repo.RecordSale(ctx, &domain.SaleHeader{}, nil)
	require.ErrorIs(t, err, ErrInvalidSale)

	_, err = repo.RecordSale(ctx, &domain.SaleHeader{
		Subtotal: money("240.00"), Tax: money("28.80"), Total: money("268.80"),
	}, []domain.SaleLine{{ProductID: 1, Quantity: 0, UnitPrice: money("120.00")}})
	require.ErrorIs(t, err, ErrInvalidSale)

	// Line totals drifting more than a centavo from the subtotal.
	_, err = repo.RecordSale(ctx, &domain.SaleHeader{
		Subtotal: money("250.00"), Tax: money("30.00"), Total: money("280.00"),
	}, goodLines)
	require.ErrorIs(t, err, ErrInvalidSale)

	// Subtotal plus tax drifting from the stated total.
	_, err = repo.RecordSale(ctx, &domain.SaleHeader{
		Subtotal: money("240.00"), Tax: money("28.80"), Total: money("270.00"),
	}, goodLines)
	require.ErrorIs(t, err, ErrInvalidSale)
}

func TestRecordSaleToleratesOneCentavo(t *testing.T) {
	repo := NewSaleRepository(nil)

	lines := []domain.SaleLine{
		{ProductID: 1, Quantity: 3, UnitPrice: money("33.33")},
	}
	// Lines sum to 99.99; a subtotal of 100.00 is within the centavo
	// tolerance, 100.01 is not. The nil connection makes the happy path
	// unreachable here, so only the out-of-tolerance case is assertable.
	header := &domain.SaleHeader{
		Subtotal: money("100.01"), Tax: money("12.00"), Total: money("112.01"),
	}
	_, err := repo.RecordSale(context.Background(), header, lines)
	require.ErrorIs(t, err, ErrInvalidSale)
	assert.Contains(t, err.Error(), "reconcile")
}
