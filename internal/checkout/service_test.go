package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/store"
)

// memStore is an in-memory store.TxRunner/UnitOfWork. Each RunInTx holds
// the mutex for the whole transaction and restores a snapshot on error,
// giving the same serializable all-or-nothing behavior the real store gets
// from the database.
type memStore struct {
	mu         sync.Mutex
	products   map[int64]*domain.Product
	sales      []memSale
	ledger     []domain.LedgerEntry
	nextSaleID int64

	failSale   bool
	failLedger bool
}

type memSale struct {
	header domain.SaleHeader
	lines  []domain.SaleLine
}

func newMemStore(products ...*domain.Product) *memStore {
	s := &memStore{products: map[int64]*domain.Product{}, nextSaleID: 1000}
	for _, p := range products {
		cp := *p
		s.products[p.ID] = &cp
	}
	return s
}

func (s *memStore) RunInTx(ctx context.Context, fn func(uow store.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapProducts := make(map[int64]*domain.Product, len(s.products))
	for id, p := range s.products {
		cp := *p
		snapProducts[id] = &cp
	}
	snapSales := len(s.sales)
	snapLedger := len(s.ledger)
	snapNext := s.nextSaleID

	if err := fn((*memUnit)(s)); err != nil {
		s.products = snapProducts
		s.sales = s.sales[:snapSales]
		s.ledger = s.ledger[:snapLedger]
		s.nextSaleID = snapNext
		return err
	}
	return nil
}

func (s *memStore) stockOf(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].StockQuantity
}

type memUnit memStore

func (u *memUnit) Catalog() store.CatalogStore { return u }
func (u *memUnit) Sales() store.SaleRecorder   { return u }
func (u *memUnit) Ledger() store.LedgerWriter  { return u }

func (u *memUnit) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := u.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (u *memUnit) DecrementStock(ctx context.Context, id int64, qty int) error {
	p, ok := u.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.StockQuantity < qty {
		return store.ErrInsufficientStock
	}
	p.StockQuantity -= qty
	return nil
}

func (u *memUnit) IncrementStock(ctx context.Context, id int64, qty int) error {
	p, ok := u.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.StockQuantity += qty
	return nil
}

func (u *memUnit) ListSellable(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range u.products {
		if p.StockQuantity > 0 {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (u *memUnit) RecordSale(ctx context.Context, header *domain.SaleHeader, lines []domain.SaleLine) (int64, error) {
	if u.failSale {
		return 0, errors.New("sale insert failed")
	}
	u.nextSaleID++
	header.ID = u.nextSaleID
	u.sales = append(u.sales, memSale{header: *header, lines: lines})
	return header.ID, nil
}

func (u *memUnit) Append(ctx context.Context, kind string, amount int, description string, productID, userID *int64) (*domain.LedgerEntry, error) {
	if u.failLedger {
		return nil, errors.New("ledger insert failed")
	}
	e := domain.LedgerEntry{
		ID:          int64(len(u.ledger) + 1),
		Kind:        kind,
		Amount:      amount,
		Description: description,
		ProductID:   productID,
		UserID:      userID,
	}
	u.ledger = append(u.ledger, e)
	return &e, nil
}

type stubPerms struct {
	perms []string
	err   error
}

func (s stubPerms) PermissionsFor(ctx context.Context, userID int64) ([]string, error) {
	return s.perms, s.err
}

type fixedRate struct{ rate decimal.Decimal }

func (f fixedRate) TaxRate(ctx context.Context) decimal.Decimal { return f.rate }

func cashier() stubPerms {
	return stubPerms{perms: []string{domain.PermProcessSales}}
}

func peso(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func riceProduct(stock int) *domain.Product {
	return &domain.Product{ID: 1, Name: "Rice 1kg", Price: peso("52.00"), StockQuantity: stock}
}

func newTestService(st *memStore) *Service {
	return NewService(st, cashier(), fixedRate{rate: DefaultTaxRate}, nil)
}

func TestCheckoutDrainsExactStock(t *testing.T) {
	st := newMemStore(riceProduct(10))
	svc := newTestService(st)

	receipt, err := svc.Checkout(context.Background(), 7, Request{
		Items:         []CartItem{{ProductID: 1, Quantity: 10}},
		PaymentMethod: "cash",
		PaymentAmount: peso("600.00"),
	})
	require.NoError(t, err)
	require.NotNil(t, receipt)

	assert.Equal(t, 0, st.stockOf(1))
	assert.Equal(t, "520", receipt.Subtotal.String())
	assert.Equal(t, "62.4", receipt.Tax.String())
	assert.Equal(t, "582.4", receipt.Total.String())
	assert.Equal(t, "17.6", receipt.Change.String())

	require.Len(t, st.sales, 1)
	assert.Equal(t, receipt.SaleID, st.sales[0].header.ID)
	assert.Equal(t, int64(7), st.sales[0].header.UserID)
	require.Len(t, st.ledger, 1)
	assert.Equal(t, domain.LedgerSale, st.ledger[0].Kind)
	assert.Equal(t, 10, st.ledger[0].Amount)
}

func TestCheckoutInsufficientStockAborts(t *testing.T) {
	st := newMemStore(riceProduct(5))
	svc := newTestService(st)

	receipt, err := svc.Checkout(context.Background(), 7, Request{
		Items:         []CartItem{{ProductID: 1, Quantity: 6}},
		PaymentAmount: peso("1000.00"),
	})
	require.Nil(t, receipt)

	var aerr *AbortError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, ReasonInsufficientStock, aerr.Reason)
	assert.Equal(t, int64(1), aerr.ProductID)
	assert.Equal(t, 5, aerr.Available)

	assert.Equal(t, 5, st.stockOf(1))
	assert.Empty(t, st.sales)
	assert.Empty(t, st.ledger)
}

func TestCheckoutConcurrentOversell(t *testing.T) {
	st := newMemStore(riceProduct(10))
	svc := newTestService(st)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), 7, Request{
				Items:         []CartItem{{ProductID: 1, Quantity: 6}},
				PaymentAmount: peso("1000.00"),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var committed, aborted int
	for err := range results {
		if err == nil {
			committed++
			continue
		}
		var aerr *AbortError
		require.ErrorAs(t, err, &aerr)
		assert.Equal(t, ReasonInsufficientStock, aerr.Reason)
		aborted++
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, aborted)
	assert.Equal(t, 4, st.stockOf(1))
	assert.Len(t, st.sales, 1)
	assert.Len(t, st.ledger, 1)
}

func TestCheckoutFoldsDuplicateLines(t *testing.T) {
	st := newMemStore(riceProduct(10))
	svc := newTestService(st)

	// Two lines of 6 for the same product together exceed the stock of 10.
	// Folding must make them fail jointly, not pass one by one.
	receipt, err := svc.Checkout(context.Background(), 7, Request{
		Items: []CartItem{
			{ProductID: 1, Quantity: 6},
			{ProductID: 1, Quantity: 6},
		},
		PaymentAmount: peso("1000.00"),
	})
	require.Nil(t, receipt)

	var aerr *AbortError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, ReasonInsufficientStock, aerr.Reason)
	assert.Equal(t, 10, st.stockOf(1))
	assert.Empty(t, st.sales)
}

func TestCheckoutVATTotals(t *testing.T) {
	st := newMemStore(&domain.Product{ID: 2, Name: "Cooking Oil 1L", Price: peso("120.00"), StockQuantity: 8})
	svc := newTestService(st)

	receipt, err := svc.Checkout(context.Background(), 3, Request{
		Items:         []CartItem{{ProductID: 2, Quantity: 2}},
		PaymentMethod: "cash",
		PaymentAmount: peso("300.00"),
	})
	require.NoError(t, err)

	assert.True(t, receipt.Subtotal.Equal(peso("240.00")), "subtotal %s", receipt.Subtotal)
	assert.True(t, receipt.Tax.Equal(peso("28.80")), "tax %s", receipt.Tax)
	assert.True(t, receipt.Total.Equal(peso("268.80")), "total %s", receipt.Total)
	assert.True(t, receipt.Change.Equal(peso("31.20")), "change %s", receipt.Change)

	require.Len(t, st.sales, 1)
	header := st.sales[0].header
	assert.True(t, header.Subtotal.Equal(peso("240.00")))
	assert.True(t, header.Tax.Equal(peso("28.80")))
	assert.True(t, header.Total.Equal(peso("268.80")))
	assert.True(t, header.PaymentAmount.Equal(peso("300.00")))
	require.Len(t, st.sales[0].lines, 1)
	assert.True(t, st.sales[0].lines[0].UnitPrice.Equal(peso("120.00")))
	assert.True(t, st.sales[0].lines[0].LineTotal.Equal(peso("240.00")))
}

func TestCheckoutServerSidePricing(t *testing.T) {
	// The request has no price fields at all; totals must come from the
	// catalog row even if the client hoped otherwise.
	st := newMemStore(&domain.Product{ID: 5, Name: "Sardines", Price: peso("25.50"), StockQuantity: 3})
	svc := newTestService(st)

	receipt, err := svc.Checkout(context.Background(), 3, Request{
		Items:         []CartItem{{ProductID: 5, Quantity: 3}},
		PaymentAmount: peso("100.00"),
	})
	require.NoError(t, err)
	assert.True(t, receipt.Subtotal.Equal(peso("76.50")))
	assert.True(t, receipt.Tax.Equal(peso("9.18")))
	assert.True(t, receipt.Total.Equal(peso("85.68")))
}

func TestCheckoutPermissionDenied(t *testing.T) {
	st := newMemStore(riceProduct(10))
	svc := NewService(st, stubPerms{perms: []string{domain.PermViewProducts}}, fixedRate{rate: DefaultTaxRate}, nil)

	_, err := svc.Checkout(context.Background(), 7, Request{
		Items:         []CartItem{{ProductID: 1, Quantity: 1}},
		PaymentAmount: peso("100.00"),
	})
	var aerr *AbortError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, ReasonPermissionDenied, aerr.Reason)
	assert.Equal(t, 10, st.stockOf(1))
}

func TestCheckoutNoGrantsMeansNoAccess(t *testing.T) {
	st := newMemStore(riceProduct(10))
	svc := NewService(st, stubPerms{perms: []string{}}, fixedRate{rate: DefaultTaxRate}, nil)

	_, err := svc.Checkout(context.Background(), 7, Request{
		Items:         []CartItem{{ProductID: 1, Quantity: 1}},
		PaymentAmount: peso("100.00"),
	})
	var aerr *AbortError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, ReasonPermissionDenied, aerr.Reason)
}

func TestCheckoutPermissionLookupFailure(t *testing.T) {
	st := newMemStore(riceProduct(10))
	svc := NewService(st, stubPerms{err: errors.New("db down")}, fixedRate{rate: DefaultTaxRate}, nil)

	_, err := svc.Checkout(context.Background(), 7, Request{
		Items:         []CartItem{{ProductID: 1, Quantity: 1}},
		PaymentAmount: peso("100.00"),
	})
	var aerr *AbortError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, ReasonStorage, aerr.Reason)
}

func TestCheckoutCartValidation(t *testing.T) {
	st := newMemStore(riceProduct(10))
	svc := newTestService(st)

	tests := []struct {
		name   string
		items  []CartItem
		reason string
	}{
		{"empty cart", nil, ReasonEmptyCart},
		{"zero quantity", []CartItem{{ProductID: 1, Quantity: 0}}, ReasonInvalidQuantity},
		{"negative quantity", []CartItem{{ProductID: 1, Quantity: -2}}, ReasonInvalidQuantity},
		{"unknown product", []CartItem{{ProductID: 99, Quantity: 1}}, ReasonUnknownProduct},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Checkout(context.Background(), 7, Request{
				Items:         tc.items,
				PaymentAmount: peso("100.00"),
			})
			var aerr *AbortError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tc.reason, aerr.Reason)
		})
	}
	assert.Equal(t, 10, st.stockOf(1))
	assert.Empty(t, st.sales)
}

func TestCheckoutInsufficientPayment(t *testing.T) {
	st := newMemStore(riceProduct(10))
	svc := newTestService(st)

	// 2 x 52.00 = 104.00 subtotal, total 116.48; tendering the subtotal
	// alone is not enough.
	_, err := svc.Checkout(context.Background(), 7, Request{
		Items:         []CartItem{{ProductID: 1, Quantity: 2}},
		PaymentAmount: peso("104.00"),
	})
	var aerr *AbortError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, ReasonInsufficientPayment, aerr.Reason)
	assert.Equal(t, 10, st.stockOf(1))
	assert.Empty(t, st.sales)
}

func TestCheckoutRollsBackWhenSaleInsertFails(t *testing.T) {
	st := newMemStore(riceProduct(10))
	st.failSale = true
	svc := newTestService(st)

	_, err := svc.Checkout(context.Background(), 7, Request{
		Items:         []CartItem{{ProductID: 1, Quantity: 4}},
		PaymentAmount: peso("500.00"),
	})
	var aerr *AbortError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, ReasonStorage, aerr.Reason)

	// The decrement succeeded inside the transaction; the rollback must
	// undo it.
	assert.Equal(t, 10, st.stockOf(1))
	assert.Empty(t, st.sales)
	assert.Empty(t, st.ledger)
}

func TestCheckoutRollsBackWhenLedgerAppendFails(t *testing.T) {
	st := newMemStore(riceProduct(10))
	st.failLedger = true
	svc := newTestService(st)

	_, err := svc.Checkout(context.Background(), 7, Request{
		Items:         []CartItem{{ProductID: 1, Quantity: 4}},
		PaymentAmount: peso("500.00"),
	})
	var aerr *AbortError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, ReasonStorage, aerr.Reason)

	// No sale without its audit record: the whole transaction unwinds.
	assert.Equal(t, 10, st.stockOf(1))
	assert.Empty(t, st.sales)
	assert.Empty(t, st.ledger)
}

func TestCheckoutPublishesCommittedEvent(t *testing.T) {
	st := newMemStore(riceProduct(10))
	bus := EventBus.New()
	var got CommittedEvent
	require.NoError(t, bus.Subscribe(TopicCommitted, func(ev CommittedEvent) {
		got = ev
	}))
	svc := NewService(st, cashier(), fixedRate{rate: DefaultTaxRate}, bus)

	receipt, err := svc.Checkout(context.Background(), 7, Request{
		Items:         []CartItem{{ProductID: 1, Quantity: 3}},
		PaymentAmount: peso("500.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, receipt.SaleID, got.SaleID)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, 1, got.LineCount)
	assert.Equal(t, 3, got.Units)
	assert.True(t, got.Total.Equal(receipt.Total))
}

func TestCheckoutReferenceIsUnique(t *testing.T) {
	st := newMemStore(riceProduct(100))
	svc := newTestService(st)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		receipt, err := svc.Checkout(context.Background(), 7, Request{
			Items:         []CartItem{{ProductID: 1, Quantity: 1}},
			PaymentAmount: peso("100.00"),
		})
		require.NoError(t, err)
		assert.False(t, seen[receipt.Reference], "duplicate reference %s", receipt.Reference)
		seen[receipt.Reference] = true
	}
}

func TestNormalizeCart(t *testing.T) {
	merged, aerr := normalizeCart([]CartItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 3},
	})
	require.Nil(t, aerr)
	require.Len(t, merged, 2)
	assert.Equal(t, CartItem{ProductID: 1, Quantity: 5}, merged[0])
	assert.Equal(t, CartItem{ProductID: 2, Quantity: 1}, merged[1])

	_, aerr = normalizeCart(nil)
	require.NotNil(t, aerr)
	assert.Equal(t, ReasonEmptyCart, aerr.Reason)

	_, aerr = normalizeCart([]CartItem{{ProductID: 1, Quantity: 0}})
	require.NotNil(t, aerr)
	assert.Equal(t, ReasonInvalidQuantity, aerr.Reason)
}
