package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStockConflict is returned when a conditional stock update matched no row.
	ErrStockConflict = errors.New("stock condition not met")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
)

// Page selects a window of a listing. Number starts at 1.
type Page struct {
	Number int
	Size   int
}

func (p Page) normalized() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 20
	}
	return p
}

// Offset is the number of rows skipped before the page.
func (p Page) Offset() int {
	p = p.normalized()
	return (p.Number - 1) * p.Size
}

func paginate(db *gorm.DB, p Page) *gorm.DB {
	p = p.normalized()
	return db.Offset(p.Offset()).Limit(p.Size)
}

// forUpdate adds a row lock where the dialect supports one.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// Store groups the GORM repositories over one connection or transaction.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store over the given connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a single database transaction. Every repository
// obtained from the Store passed to fn shares that transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Products() ProductRepository    { return NewGORMProductRepository(s.db) }
func (s *Store) Categories() CategoryRepository { return NewGORMCategoryRepository(s.db) }
func (s *Store) Users() UserRepository          { return NewGORMUserRepository(s.db) }
func (s *Store) Carts() CartRepository          { return NewGORMCartRepository(s.db) }
func (s *Store) Orders() OrderRepository        { return NewGORMOrderRepository(s.db) }
func (s *Store) Reviews() ReviewRepository      { return NewGORMReviewRepository(s.db) }

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
