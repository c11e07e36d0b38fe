package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/palengkeplus/palengke/internal/domain"
)

// LedgerRepository appends audit records. There is deliberately no update
// or delete method on this type.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Append(ctx context.Context, kind string, amount int, description string, productID, userID *int64) (*domain.LedgerEntry, error) {
	if !domain.ValidLedgerKind(kind) {
		return nil, errors.Errorf("ledger: unknown kind %q", kind)
	}
	entry := &domain.LedgerEntry{
		Kind:        kind,
		Amount:      amount,
		Description: description,
		ProductID:   productID,
		UserID:      userID,
		CreatedAt:   time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, wrapDBErr(err, "append ledger entry")
	}
	return entry, nil
}

func (r *LedgerRepository) ListRecent(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	var rows []domain.LedgerEntry
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "list ledger entries")
	}
	return rows, nil
}

func (r *LedgerRepository) ListByProduct(ctx context.Context, productID int64, limit int) ([]domain.LedgerEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	var rows []domain.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id DESC").Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "list ledger entries by product")
	}
	return rows, nil
}

func (r *LedgerRepository) ListRange(ctx context.Context, from, to time.Time, page, pageSize int) ([]domain.LedgerEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&domain.LedgerEntry{}).
		Where("transaction_date >= ? AND transaction_date < ?", from, to)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, wrapDBErr(err, "count ledger entries")
	}
	var rows []domain.LedgerEntry
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, 0, wrapDBErr(err, "list ledger entries")
	}
	return rows, total, nil
}
