package store

import (
	"context"
	"errors"

	"github.com/palengkeplus/palengke/internal/domain"
)

var (
	ErrNotFound          = errors.New("store: not found")
	ErrInsufficientStock = errors.New("store: insufficient stock")
	ErrInvalidSale       = errors.New("store: invalid sale")
)

// CatalogStore exposes the product operations the checkout pipeline needs.
// It mutates stock rows only; ledger entries are the caller's responsibility
// so the audit trail stays in the orchestrator's hands.
type CatalogStore interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// DecrementStock atomically subtracts qty, failing with
	// ErrInsufficientStock when the current stock is lower than qty.
	DecrementStock(ctx context.Context, id int64, qty int) error

	IncrementStock(ctx context.Context, id int64, qty int) error

	ListSellable(ctx context.Context) ([]domain.Product, error)
}

// SaleRecorder persists a completed sale on the caller's transaction.
// It never opens its own commit boundary.
type SaleRecorder interface {
	RecordSale(ctx context.Context, header *domain.SaleHeader, lines []domain.SaleLine) (int64, error)
}

// LedgerWriter appends immutable audit records.
type LedgerWriter interface {
	Append(ctx context.Context, kind string, amount int, description string, productID, userID *int64) (*domain.LedgerEntry, error)
}

// UnitOfWork groups the stores sharing one transaction scope.
type UnitOfWork interface {
	Catalog() CatalogStore
	Sales() SaleRecorder
	Ledger() LedgerWriter
}

// TxRunner runs fn inside a single all-or-nothing commit. Any error from fn
// rolls every store mutation back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}
