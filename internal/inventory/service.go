package inventory

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/store"
)

var (
	ErrInvalidKind     = errors.New("inventory: invalid transaction kind")
	ErrInvalidAmount   = errors.New("inventory: amount must be greater than zero")
	ErrUnknownProduct  = errors.New("inventory: unknown product")
	ErrInsufficientQty = errors.New("inventory: not enough stock available")
	ErrStorage         = errors.New("inventory: storage failure")
)

// Adjustment is a manual stock movement outside the sale pipeline.
type Adjustment struct {
	ProductID   int64  `json:"product_id,string"`
	Kind        string `json:"kind"`
	Amount      int    `json:"amount"`
	Description string `json:"description"`
}

// Service applies ad-hoc stock transactions: stock_in adds, stock_out
// subtracts under the same conditional guard as checkout, adjustment only
// records. The stock change commits first; the ledger append afterwards is
// best-effort and merely logged on failure, unlike checkout where a missing
// audit row aborts the sale.
type Service struct {
	tx     store.TxRunner
	ledger store.LedgerWriter
}

func NewService(tx store.TxRunner, ledger store.LedgerWriter) *Service {
	return &Service{tx: tx, ledger: ledger}
}

func (s *Service) Adjust(ctx context.Context, userID int64, adj Adjustment) (*domain.Product, error) {
	switch adj.Kind {
	case domain.LedgerStockIn, domain.LedgerStockOut, domain.LedgerAdjustment:
	default:
		return nil, ErrInvalidKind
	}
	if adj.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var product *domain.Product
	err := s.tx.RunInTx(ctx, func(uow store.UnitOfWork) error {
		p, err := uow.Catalog().GetProduct(ctx, adj.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnknownProduct
		}
		if err != nil {
			return err
		}

		switch adj.Kind {
		case domain.LedgerStockIn:
			if err := uow.Catalog().IncrementStock(ctx, p.ID, adj.Amount); err != nil {
				return err
			}
			p.StockQuantity += adj.Amount
		case domain.LedgerStockOut:
			if err := uow.Catalog().DecrementStock(ctx, p.ID, adj.Amount); err != nil {
				if errors.Is(err, store.ErrInsufficientStock) {
					return ErrInsufficientQty
				}
				return err
			}
			p.StockQuantity -= adj.Amount
		case domain.LedgerAdjustment:
			// Record-only: the count is corrected on paper, stock untouched.
		}
		product = p
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnknownProduct) || errors.Is(err, ErrInsufficientQty) {
			return nil, err
		}
		zap.L().Error("stock adjustment failed",
			zap.Int64("product_id", adj.ProductID),
			zap.String("kind", adj.Kind),
			zap.Error(err))
		return nil, ErrStorage
	}

	desc := adj.Description
	if desc == "" {
		desc = fmt.Sprintf("%s of %d units of %s", adj.Kind, adj.Amount, product.Name)
	}
	if _, err := s.ledger.Append(ctx, adj.Kind, adj.Amount, desc, &adj.ProductID, &userID); err != nil {
		zap.L().Warn("ledger append failed for manual adjustment",
			zap.Int64("product_id", adj.ProductID),
			zap.String("kind", adj.Kind),
			zap.Error(err))
	}
	return product, nil
}
