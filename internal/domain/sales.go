package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleHeader is the order-level record of a completed checkout.
// Created exactly once per checkout and never updated afterwards.
type SaleHeader struct {
	ID            int64           `gorm:"primaryKey" json:"id,string"`
	Reference     string          `gorm:"size:64;uniqueIndex" json:"reference"`
	UserID        int64           `gorm:"index" json:"user_id,string"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
	Tax           decimal.Decimal `gorm:"type:decimal(12,2)" json:"tax"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2)" json:"total"`
	PaymentMethod string          `gorm:"size:32" json:"payment_method"`
	PaymentAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"payment_amount"`
	SaleDate      time.Time       `gorm:"index" json:"sale_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TableName Specify table name
func (SaleHeader) TableName() string {
	return "sales_header"
}

// SaleLine is one itemized row of a sale. UnitPrice is captured at sale
// time, never re-derived from the catalog.
type SaleLine struct {
	ID        int64           `gorm:"primaryKey" json:"id,string"`
	SaleID    int64           `gorm:"index" json:"sale_id,string"`
	ProductID int64           `gorm:"index" json:"product_id,string"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2)" json:"line_total"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName Specify table name
func (SaleLine) TableName() string {
	return "sales_line"
}
