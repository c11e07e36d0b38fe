package store

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/palengkeplus/palengke/internal/domain"
)

// CatalogRepository owns product rows.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, wrapDBErr(err, "query product")
	}
	return &p, nil
}

// DecrementStock subtracts qty as a single conditional update. A plain
// read-modify-write here would race concurrent checkouts for the last
// units, so the stock guard lives in the WHERE clause and a zero-row
// result distinguishes insufficient stock from a missing product.
func (r *CatalogRepository) DecrementStock(ctx context.Context, id int64, qty int) error {
	if qty <= 0 {
		return errors.Wrap(ErrInvalidSale, "decrement quantity must be positive")
	}
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		UpdateColumns(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return wrapDBErr(res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return wrapDBErr(err, "decrement stock")
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *CatalogRepository) IncrementStock(ctx context.Context, id int64, qty int) error {
	if qty <= 0 {
		return errors.Wrap(ErrInvalidSale, "increment quantity must be positive")
	}
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity + ?", qty),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return wrapDBErr(res.Error, "increment stock")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CatalogRepository) ListSellable(ctx context.Context) ([]domain.Product, error) {
	var rows []domain.Product
	if err := r.db.WithContext(ctx).
		Where("stock_quantity > 0").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "list sellable products")
	}
	return rows, nil
}

func (r *CatalogRepository) Create(ctx context.Context, p *domain.Product) error {
	return wrapDBErr(r.db.WithContext(ctx).Create(p).Error, "create product")
}

// UpdateDetails writes the editable product fields, deliberately leaving
// stock_quantity alone. Stock changes go through IncrementStock and
// DecrementStock so a checkout committing mid-edit keeps its decrement.
func (r *CatalogRepository) UpdateDetails(ctx context.Context, p *domain.Product) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"description": p.Description,
			"price":       p.Price,
			"category":    p.Category,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return wrapDBErr(res.Error, "update product")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft-deletes the product; historical sale lines keep resolving.
func (r *CatalogRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		return wrapDBErr(res.Error, "delete product")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchFilter narrows the product listing; zero values mean no filter.
type SearchFilter struct {
	Query    string
	Category string
	Page     int
	PageSize int
	SortCol  string
	SortDesc bool
}

// Search lists products with substring and category filters. Sort columns
// are whitelisted to keep query params out of the ORDER BY.
func (r *CatalogRepository) Search(ctx context.Context, f SearchFilter) ([]domain.Product, int64, error) {
	allowed := map[string]string{
		"id":             "id",
		"name":           "name",
		"price":          "price",
		"stock_quantity": "stock_quantity",
		"category":       "category",
		"created_at":     "created_at",
		"updated_at":     "updated_at",
	}
	sortCol, okCol := allowed[f.SortCol]
	if !okCol {
		sortCol = "id"
	}
	order := sortCol + " ASC"
	if f.SortDesc {
		order = sortCol + " DESC"
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 500 {
		f.PageSize = 20
	}

	db := r.db.WithContext(ctx).Model(&domain.Product{})
	if q := strings.TrimSpace(f.Query); q != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if f.Category != "" {
		db = db.Where("category = ?", f.Category)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, wrapDBErr(err, "count products")
	}

	var rows []domain.Product
	if err := db.Order(order).Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, wrapDBErr(err, "search products")
	}
	return rows, total, nil
}

// LowStock lists live products at or below threshold, for the nightly scan.
func (r *CatalogRepository) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	var rows []domain.Product
	if err := r.db.WithContext(ctx).
		Where("stock_quantity <= ?", threshold).
		Order("stock_quantity ASC").
		Find(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "list low stock products")
	}
	return rows, nil
}
