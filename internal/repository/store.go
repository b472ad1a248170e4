package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/boutique-commerce/backoffice/internal/domain"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	Search         string
	BestsellerOnly bool
	IncludeHidden  bool
	Limit          int
	Offset         int
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status     domain.OrderStatus
	CustomerID *uuid.UUID
	Limit      int
	Offset     int
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	// AdjustQuantity applies a signed delta as a single conditional update:
	// it fails with InsufficientStockError when the result would be
	// negative, without writing anything. Returns the product after the
	// change.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error)
	AppendAdjustment(ctx context.Context, a *domain.StockAdjustment) error
	ListAdjustments(ctx context.Context, productID uuid.UUID, limit int) ([]domain.StockAdjustment, error)
}

type OrderRepository interface {
	// Create persists the order header and all its line items.
	Create(ctx context.Context, o *domain.Order) error
	// Update persists the mutable header fields (status, payment, tracking,
	// timestamps). Line items are immutable after creation.
	Update(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, f OrderFilter) ([]domain.Order, error)
}

type CouponRepository interface {
	Create(ctx context.Context, c *domain.Coupon) error
	Update(ctx context.Context, c *domain.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error)
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context, limit, offset int) ([]domain.Coupon, error)
	// Redeem increments used_count atomically, refusing once the usage
	// limit is reached. There is no read-modify-write gap.
	Redeem(ctx context.Context, id uuid.UUID) error
}

type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	Update(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	List(ctx context.Context, limit, offset int) ([]domain.Customer, error)
}

// Store bundles the repositories behind one transactional boundary. All
// writes inside an InTx callback commit together or not at all.
type Store interface {
	Products() ProductRepository
	Orders() OrderRepository
	Coupons() CouponRepository
	Customers() CustomerRepository
	InTx(ctx context.Context, fn func(Store) error) error
}

// SQLStore is the PostgreSQL Store. The same repository code runs against
// the pool and against a transaction through sqlx.ExtContext.
type SQLStore struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

func NewStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, ext: db}
}

func (s *SQLStore) Products() ProductRepository   { return &productRepository{ext: s.ext} }
func (s *SQLStore) Orders() OrderRepository       { return &orderRepository{ext: s.ext} }
func (s *SQLStore) Coupons() CouponRepository     { return &couponRepository{ext: s.ext} }
func (s *SQLStore) Customers() CustomerRepository { return &customerRepository{ext: s.ext} }

func (s *SQLStore) InTx(ctx context.Context, fn func(Store) error) error {
	if _, nested := s.ext.(*sqlx.Tx); nested {
		// Already transactional; join the enclosing transaction.
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "begin transaction", Err: err}
	}

	if err := fn(&SQLStore{db: s.db, ext: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return &domain.PersistenceError{Op: "rollback transaction", Err: rbErr}
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit transaction", Err: err}
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation, optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func persistErr(op string, err error) error {
	return &domain.PersistenceError{Op: op, Err: err}
}

// requireAffected turns a zero-row UPDATE into a NotFoundError.
func requireAffected(res sql.Result, entity string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr("rows affected", err)
	}
	if n == 0 {
		return domain.NewNotFoundError(entity, id)
	}
	return nil
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func nowUTC() time.Time { return time.Now().UTC() }
