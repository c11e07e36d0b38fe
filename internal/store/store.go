package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Store is the GORM-backed implementation of TxRunner and UnitOfWork.
// Outside RunInTx its repositories read against the base connection.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Catalog() CatalogStore { return NewCatalogRepository(s.db) }
func (s *Store) Sales() SaleRecorder   { return NewSaleRepository(s.db) }
func (s *Store) Ledger() LedgerWriter  { return NewLedgerRepository(s.db) }

// RunInTx executes fn inside one database transaction. The unit of work
// handed to fn shares that transaction, so a failure at any step undoes
// stock decrements, sale rows and ledger entries together.
func (s *Store) RunInTx(ctx context.Context, fn func(uow UnitOfWork) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txUnit{tx: tx})
	})
	if err != nil {
		return err
	}
	return nil
}

type txUnit struct {
	tx *gorm.DB
}

func (u *txUnit) Catalog() CatalogStore { return NewCatalogRepository(u.tx) }
func (u *txUnit) Sales() SaleRecorder   { return NewSaleRepository(u.tx) }
func (u *txUnit) Ledger() LedgerWriter  { return NewLedgerRepository(u.tx) }

func wrapDBErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return errors.Wrap(err, msg)
}
