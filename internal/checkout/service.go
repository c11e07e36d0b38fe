package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/labstack/gommon/random"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/store"
)

// TopicCommitted is published on the event bus after a checkout commits.
const TopicCommitted = "checkout.committed"

// PermissionResolver resolves the permission set for a user.
type PermissionResolver interface {
	PermissionsFor(ctx context.Context, userID int64) ([]string, error)
}

// Settings supplies the runtime checkout settings.
type Settings interface {
	TaxRate(ctx context.Context) decimal.Decimal
}

// CartItem is one requested line: product and quantity only. Prices and
// totals from the client are never trusted.
type CartItem struct {
	ProductID int64 `json:"product_id,string"`
	Quantity  int   `json:"quantity"`
}

// Request is a submitted cart.
type Request struct {
	Items         []CartItem      `json:"items"`
	PaymentMethod string          `json:"payment_method"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
}

// Receipt references the committed sale.
type Receipt struct {
	SaleID    int64           `json:"sale_id,string"`
	Reference string          `json:"reference"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	Change    decimal.Decimal `json:"change"`
}

// CommittedEvent is the bus payload for TopicCommitted.
type CommittedEvent struct {
	SaleID    int64
	UserID    int64
	Total     decimal.Decimal
	LineCount int
	Units     int
}

// Service drives the checkout pipeline. It is the only component that
// decides commit versus rollback; the stores it coordinates perform no
// partial commits of their own.
type Service struct {
	tx       store.TxRunner
	perms    PermissionResolver
	settings Settings
	bus      EventBus.Bus
}

func NewService(tx store.TxRunner, perms PermissionResolver, settings Settings, bus EventBus.Bus) *Service {
	return &Service{tx: tx, perms: perms, settings: settings, bus: bus}
}

// Checkout converts a cart into a committed sale: validate, price, reserve
// stock, record the sale, append one ledger entry, commit. Any failure
// after validation rolls the whole transaction back and no partial state
// stays visible.
func (s *Service) Checkout(ctx context.Context, userID int64, req Request) (*Receipt, error) {
	m := newMachine()

	allowed, err := s.hasCheckoutPermission(ctx, userID)
	if err != nil {
		zap.L().Error("checkout permission lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		m.abort()
		return nil, abortErr(ReasonStorage)
	}
	if !allowed {
		m.abort()
		return nil, abortErr(ReasonPermissionDenied)
	}

	items, aerr := normalizeCart(req.Items)
	if aerr != nil {
		m.abort()
		return nil, aerr
	}

	taxRate := s.taxRate(ctx)
	reference := newReference(userID)

	var receipt *Receipt
	txErr := s.tx.RunInTx(ctx, func(uow store.UnitOfWork) error {
		// Validation runs against the snapshot this transaction sees, so
		// two lines folded into one item cannot pass independently.
		lines := make([]PricedLine, 0, len(items))
		for _, it := range items {
			p, err := uow.Catalog().GetProduct(ctx, it.ProductID)
			if errors.Is(err, store.ErrNotFound) {
				return abortProduct(ReasonUnknownProduct, it.ProductID, 0)
			}
			if err != nil {
				return err
			}
			if p.StockQuantity < it.Quantity {
				return abortProduct(ReasonInsufficientStock, p.ID, p.StockQuantity)
			}
			lines = append(lines, PricedLine{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    it.Quantity,
				UnitPrice:   p.Price,
			})
		}
		m.advance(StateValidated)

		pricing := price(lines, taxRate)
		if req.PaymentAmount.LessThan(pricing.Total) {
			return abortErr(ReasonInsufficientPayment)
		}

		units := 0
		for _, ln := range pricing.Lines {
			if err := uow.Catalog().DecrementStock(ctx, ln.ProductID, ln.Quantity); err != nil {
				if errors.Is(err, store.ErrInsufficientStock) {
					// Lost the race for the last units since the snapshot read.
					return abortProduct(ReasonInsufficientStock, ln.ProductID, 0)
				}
				return err
			}
			units += ln.Quantity
		}
		m.advance(StateStockReserved)

		header := &domain.SaleHeader{
			Reference:     reference,
			UserID:        userID,
			Subtotal:      pricing.Subtotal,
			Tax:           pricing.Tax,
			Total:         pricing.Total,
			PaymentMethod: req.PaymentMethod,
			PaymentAmount: req.PaymentAmount,
			SaleDate:      time.Now(),
		}
		saleLines := make([]domain.SaleLine, 0, len(pricing.Lines))
		for _, ln := range pricing.Lines {
			saleLines = append(saleLines, domain.SaleLine{
				ProductID: ln.ProductID,
				Quantity:  ln.Quantity,
				UnitPrice: ln.UnitPrice,
				LineTotal: ln.LineTotal,
			})
		}
		saleID, err := uow.Sales().RecordSale(ctx, header, saleLines)
		if err != nil {
			return err
		}
		m.advance(StateRecorded)

		// One ledger entry per sale. A ledger failure here is fatal: a
		// committed sale without its audit record is worse than a retry.
		desc := fmt.Sprintf("Sold %d units across %d products (Sale #%d, %s)",
			units, len(pricing.Lines), saleID, reference)
		if _, err := uow.Ledger().Append(ctx, domain.LedgerSale, units, desc, nil, &userID); err != nil {
			return err
		}

		receipt = &Receipt{
			SaleID:    saleID,
			Reference: reference,
			Subtotal:  pricing.Subtotal,
			Tax:       pricing.Tax,
			Total:     pricing.Total,
			Change:    req.PaymentAmount.Sub(pricing.Total),
		}
		return nil
	})
	if txErr != nil {
		m.abort()
		var aerr *AbortError
		if errors.As(txErr, &aerr) {
			return nil, aerr
		}
		zap.L().Error("checkout storage failure",
			zap.Int64("user_id", userID),
			zap.String("reference", reference),
			zap.Error(txErr))
		return nil, abortErr(ReasonStorage)
	}
	m.advance(StateCommitted)

	if s.bus != nil {
		units := 0
		for _, it := range items {
			units += it.Quantity
		}
		s.bus.Publish(TopicCommitted, CommittedEvent{
			SaleID:    receipt.SaleID,
			UserID:    userID,
			Total:     receipt.Total,
			LineCount: len(items),
			Units:     units,
		})
	}
	zap.L().Info("checkout committed",
		zap.Int64("sale_id", receipt.SaleID),
		zap.String("reference", receipt.Reference),
		zap.Int64("user_id", userID),
		zap.String("total", receipt.Total.String()))
	return receipt, nil
}

func (s *Service) hasCheckoutPermission(ctx context.Context, userID int64) (bool, error) {
	perms, err := s.perms.PermissionsFor(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == domain.PermProcessSales {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) taxRate(ctx context.Context) decimal.Decimal {
	if s.settings == nil {
		return DefaultTaxRate
	}
	return s.settings.TaxRate(ctx)
}

// normalizeCart rejects empty carts and non-positive quantities, and folds
// duplicate product lines into one item so a split request cannot pass the
// per-item stock check while jointly exceeding the available stock.
func normalizeCart(items []CartItem) ([]CartItem, *AbortError) {
	if len(items) == 0 {
		return nil, abortErr(ReasonEmptyCart)
	}
	index := map[int64]int{}
	merged := make([]CartItem, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, abortProduct(ReasonInvalidQuantity, it.ProductID, 0)
		}
		if pos, seen := index[it.ProductID]; seen {
			merged[pos].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	return merged, nil
}

// newReference builds the receipt reference, e.g. SALE-20240131154502-8-AB12CD.
func newReference(userID int64) string {
	return fmt.Sprintf("SALE-%s-%d-%s",
		time.Now().Format("20060102150405"), userID,
		random.New().String(6, random.Uppercase+random.Numeric))
}
