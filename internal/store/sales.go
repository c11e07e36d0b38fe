package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/pkg/common"
)

// centavo is the reconciliation tolerance for monetary sums.
var centavo = decimal.New(1, -2)

// SaleRepository owns sale headers and lines.
type SaleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// RecordSale persists the header then its lines on the repository's
// connection, which inside a checkout is the orchestrator's transaction.
// The header/line money must already reconcile; this is the last guard
// before rows hit the table.
func (r *SaleRepository) RecordSale(ctx context.Context, header *domain.SaleHeader, lines []domain.SaleLine) (int64, error) {
	if len(lines) == 0 {
		return 0, errors.Wrap(ErrInvalidSale, "sale has no lines")
	}
	sum := decimal.Zero
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return 0, errors.Wrapf(ErrInvalidSale, "line for product %d has non-positive quantity", ln.ProductID)
		}
		sum = sum.Add(ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}
	if sum.Sub(header.Subtotal).Abs().GreaterThan(centavo) {
		return 0, errors.Wrapf(ErrInvalidSale, "line totals %s do not reconcile with subtotal %s", sum, header.Subtotal)
	}
	if header.Subtotal.Add(header.Tax).Sub(header.Total).Abs().GreaterThan(centavo) {
		return 0, errors.Wrap(ErrInvalidSale, "subtotal plus tax does not reconcile with total")
	}

	if header.ID == 0 {
		header.ID = common.UUIDint64()
	}
	now := time.Now()
	if header.SaleDate.IsZero() {
		header.SaleDate = now
	}
	header.CreatedAt = now

	if err := r.db.WithContext(ctx).Create(header).Error; err != nil {
		return 0, wrapDBErr(err, "create sale header")
	}
	for i := range lines {
		lines[i].ID = common.UUIDint64()
		lines[i].SaleID = header.ID
		lines[i].CreatedAt = now
	}
	if err := r.db.WithContext(ctx).Create(&lines).Error; err != nil {
		return 0, wrapDBErr(err, "create sale lines")
	}
	return header.ID, nil
}

// GetSale loads one header with its lines.
func (r *SaleRepository) GetSale(ctx context.Context, id int64) (*domain.SaleHeader, []domain.SaleLine, error) {
	var header domain.SaleHeader
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&header).Error; err != nil {
		return nil, nil, wrapDBErr(err, "query sale header")
	}
	var lines []domain.SaleLine
	if err := r.db.WithContext(ctx).Where("sale_id = ?", id).Order("id ASC").Find(&lines).Error; err != nil {
		return nil, nil, wrapDBErr(err, "query sale lines")
	}
	return &header, lines, nil
}

func (r *SaleRepository) ListRange(ctx context.Context, from, to time.Time, page, pageSize int) ([]domain.SaleHeader, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&domain.SaleHeader{}).
		Where("sale_date >= ? AND sale_date < ?", from, to)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, wrapDBErr(err, "count sales")
	}
	var rows []domain.SaleHeader
	if err := db.Order("sale_date DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, 0, wrapDBErr(err, "list sales")
	}
	return rows, total, nil
}

// RangeTotals aggregates revenue over [from, to).
type RangeTotals struct {
	Count    int64           `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func (r *SaleRepository) TotalsRange(ctx context.Context, from, to time.Time) (*RangeTotals, error) {
	var rows []domain.SaleHeader
	if err := r.db.WithContext(ctx).
		Where("sale_date >= ? AND sale_date < ?", from, to).
		Find(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "query sales range")
	}
	out := &RangeTotals{Subtotal: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero}
	for _, h := range rows {
		out.Count++
		out.Subtotal = out.Subtotal.Add(h.Subtotal)
		out.Tax = out.Tax.Add(h.Tax)
		out.Total = out.Total.Add(h.Total)
	}
	return out, nil
}

// TotalsByRange returns the individual totals in the range, for the stats
// aggregates in reports.
func (r *SaleRepository) TotalsByRange(ctx context.Context, from, to time.Time) ([]float64, error) {
	var rows []domain.SaleHeader
	if err := r.db.WithContext(ctx).
		Where("sale_date >= ? AND sale_date < ?", from, to).
		Order("sale_date ASC").
		Find(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "query sales range")
	}
	totals := make([]float64, 0, len(rows))
	for _, h := range rows {
		f, _ := h.Total.Float64()
		totals = append(totals, f)
	}
	return totals, nil
}
