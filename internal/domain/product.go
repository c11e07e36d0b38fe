package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog item. Rows are soft-deleted so historical
// sale lines stay resolvable after a product is retired.
type Product struct {
	ID            int64           `gorm:"primaryKey" json:"id,string"`
	Name          string          `gorm:"index" json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	StockQuantity int             `gorm:"check:stock_quantity >= 0" json:"stock_quantity"`
	Category      string          `gorm:"size:64;index" json:"category"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}
