package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store is the unit-of-work boundary for the order workflow. Repositories obtained from the
// Store handed to WithinTransaction's callback share that transaction.
type Store interface {
	Catalog() CatalogReader
	Products() ProductRepository
	Orders() OrderRepository
	Movements() StockMovementRepository
	Customers() CustomerRepository
	Enterprises() EnterpriseRepository

	// WithinTransaction commits when fn returns nil and rolls back every write otherwise.
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Catalog() CatalogReader             { return &catalogRepo{db: s.db} }
func (s *gormStore) Products() ProductRepository        { return &productRepo{db: s.db} }
func (s *gormStore) Orders() OrderRepository            { return &orderRepo{db: s.db} }
func (s *gormStore) Movements() StockMovementRepository { return &movementRepo{db: s.db} }
func (s *gormStore) Customers() CustomerRepository      { return &customerRepo{db: s.db} }
func (s *gormStore) Enterprises() EnterpriseRepository  { return &enterpriseRepo{db: s.db} }

func (s *gormStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
