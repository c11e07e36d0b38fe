package domain

import "time"

// Ledger entry kinds. The amount is always a unit count, not money; money
// lives on the sale header.
const (
	LedgerPurchase   = "purchase"
	LedgerSale       = "sale"
	LedgerAdjustment = "adjustment"
	LedgerStockIn    = "stock_in"
	LedgerStockOut   = "stock_out"
)

// LedgerEntry is an append-only audit record of a stock- or
// revenue-affecting event. Entries are never updated or deleted.
type LedgerEntry struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind        string    `gorm:"size:32;index;column:transaction_type" json:"transaction_type"`
	Amount      int       `json:"amount"`
	Description string    `gorm:"size:1024" json:"description"`
	ProductID   *int64    `gorm:"index" json:"product_id,omitempty"`
	UserID      *int64    `gorm:"index" json:"user_id,omitempty"`
	CreatedAt   time.Time `gorm:"index;column:transaction_date" json:"transaction_date"`
}

// TableName Specify table name
func (LedgerEntry) TableName() string {
	return "transactions"
}

// ValidLedgerKind reports whether kind is one of the closed set above.
func ValidLedgerKind(kind string) bool {
	switch kind {
	case LedgerPurchase, LedgerSale, LedgerAdjustment, LedgerStockIn, LedgerStockOut:
		return true
	}
	return false
}
