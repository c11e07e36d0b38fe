package adminapi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palengkeplus/palengke/internal/domain"
)

func TestStockChange(t *testing.T) {
	tests := []struct {
		name     string
		oldStock int
		newStock int
		kind     string
		amount   int
	}{
		{"increase", 4, 10, domain.LedgerStockIn, 6},
		{"decrease", 10, 4, domain.LedgerStockOut, 6},
		{"unchanged", 7, 7, "", 0},
		{"drain to zero", 3, 0, domain.LedgerStockOut, 3},
		{"from zero", 0, 12, domain.LedgerStockIn, 12},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, amount := stockChange(tc.oldStock, tc.newStock)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.amount, amount)
		})
	}
}
