// Package repositorytest provides an in-memory repository.Store for tests.
// It mirrors the PostgreSQL store's semantics where they matter: atomic
// quantity adjustments, atomic coupon redemption, unique constraints,
// all-or-nothing InTx rollback via state snapshots, and constraint
// violations poisoning the rest of the transaction.
package repositorytest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/repository"
)

type memState struct {
	products    map[uuid.UUID]domain.Product
	adjustments []domain.StockAdjustment
	orders      map[uuid.UUID]domain.Order
	orderSeq    []uuid.UUID
	coupons     map[uuid.UUID]domain.Coupon
	couponSeq   []uuid.UUID
	customers   map[uuid.UUID]domain.Customer
	customerSeq []uuid.UUID
}

func newMemState() *memState {
	return &memState{
		products:  make(map[uuid.UUID]domain.Product),
		orders:    make(map[uuid.UUID]domain.Order),
		coupons:   make(map[uuid.UUID]domain.Coupon),
		customers: make(map[uuid.UUID]domain.Customer),
	}
}

func (st *memState) clone() *memState {
	c := newMemState()
	for id, p := range st.products {
		c.products[id] = p
	}
	c.adjustments = append(c.adjustments, st.adjustments...)
	for id, o := range st.orders {
		o.Lines = append([]domain.OrderLineItem(nil), o.Lines...)
		c.orders[id] = o
	}
	c.orderSeq = append(c.orderSeq, st.orderSeq...)
	for id, cp := range st.coupons {
		c.coupons[id] = cp
	}
	c.couponSeq = append(c.couponSeq, st.couponSeq...)
	for id, cu := range st.customers {
		c.customers[id] = cu
	}
	c.customerSeq = append(c.customerSeq, st.customerSeq...)
	return c
}

// errTxAborted mimics PostgreSQL's 25P02: once a statement fails on a
// constraint, every later statement in the same transaction fails too.
var errTxAborted = errors.New("current transaction is aborted")

// MemStore implements repository.Store over process memory. The zero value is
// not usable; construct with NewStore.
type MemStore struct {
	mu    sync.Mutex
	state *memState
	// txn marks a Store handed to an InTx callback. Its methods run without
	// locking because the root store's mutex is already held.
	txn bool
	// aborted is set when a constraint violation happens inside a
	// transaction, matching PostgreSQL's abort-until-rollback behavior.
	aborted bool
}

func NewStore() *MemStore {
	return &MemStore{state: newMemState()}
}

func (s *MemStore) locked(fn func(*memState) error) error {
	if s.txn {
		if s.aborted {
			return &domain.PersistenceError{Op: "exec statement", Err: errTxAborted}
		}
		err := fn(s.state)
		var dup *domain.DuplicateError
		if errors.As(err, &dup) {
			s.aborted = true
		}
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func (s *MemStore) Products() repository.ProductRepository   { return &productRepo{s} }
func (s *MemStore) Orders() repository.OrderRepository       { return &orderRepo{s} }
func (s *MemStore) Coupons() repository.CouponRepository     { return &couponRepo{s} }
func (s *MemStore) Customers() repository.CustomerRepository { return &customerRepo{s} }

func (s *MemStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	if s.txn {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	tx := &MemStore{state: s.state, txn: true}
	if err := fn(tx); err != nil {
		s.state = snapshot
		return err
	}
	if tx.aborted {
		// Committing an aborted transaction rolls it back.
		s.state = snapshot
		return &domain.PersistenceError{Op: "commit transaction", Err: errTxAborted}
	}
	return nil
}

// SeedProduct, SeedCoupon and SeedCustomer install fixtures directly.

func (s *MemStore) SeedProduct(p domain.Product) {
	_ = s.locked(func(st *memState) error {
		st.products[p.ID] = p
		return nil
	})
}

// RemoveProduct drops a product outright, simulating a hard delete that
// happened outside the application.
func (s *MemStore) RemoveProduct(id uuid.UUID) {
	_ = s.locked(func(st *memState) error {
		delete(st.products, id)
		return nil
	})
}

func (s *MemStore) SeedCoupon(c domain.Coupon) {
	_ = s.locked(func(st *memState) error {
		st.coupons[c.ID] = c
		st.couponSeq = append(st.couponSeq, c.ID)
		return nil
	})
}

func (s *MemStore) SeedCustomer(c domain.Customer) {
	_ = s.locked(func(st *memState) error {
		st.customers[c.ID] = c
		st.customerSeq = append(st.customerSeq, c.ID)
		return nil
	})
}

type productRepo struct{ s *MemStore }

func (r *productRepo) Create(_ context.Context, p *domain.Product) error {
	return r.s.locked(func(st *memState) error {
		if p.SKU != "" {
			for _, existing := range st.products {
				if existing.SKU == p.SKU {
					return &domain.DuplicateError{Entity: "product", Field: "sku", Value: p.SKU}
				}
			}
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *productRepo) Update(_ context.Context, p *domain.Product) error {
	return r.s.locked(func(st *memState) error {
		existing, ok := st.products[p.ID]
		if !ok {
			return domain.NewNotFoundError("product", p.ID)
		}
		// Quantity is not written here; it moves only through AdjustQuantity.
		existing.Name = p.Name
		existing.Description = p.Description
		existing.SKU = p.SKU
		existing.Price = p.Price
		existing.OriginalPrice = p.OriginalPrice
		existing.IsActive = p.IsActive
		existing.IsBestseller = p.IsBestseller
		existing.ImageURL = p.ImageURL
		st.products[p.ID] = existing
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	var out domain.Product
	err := r.s.locked(func(st *memState) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NewNotFoundError("product", id)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	var out []domain.Product
	err := r.s.locked(func(st *memState) error {
		for _, p := range st.products {
			if !f.IncludeHidden && !p.IsActive {
				continue
			}
			if f.BestsellerOnly && !p.IsBestseller {
				continue
			}
			if f.Search != "" {
				needle := strings.ToLower(f.Search)
				if !strings.Contains(strings.ToLower(p.Name), needle) &&
					!strings.Contains(strings.ToLower(p.Description), needle) {
					continue
				}
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *productRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	return r.s.locked(func(st *memState) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NewNotFoundError("product", id)
		}
		p.IsActive = false
		st.products[id] = p
		return nil
	})
}

func (r *productRepo) AdjustQuantity(_ context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	var out domain.Product
	err := r.s.locked(func(st *memState) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NewNotFoundError("product", id)
		}
		if p.Quantity+delta < 0 {
			return &domain.InsufficientStockError{
				ProductID:   id,
				ProductName: p.Name,
				Requested:   -delta,
				Available:   p.Quantity,
			}
		}
		p.Quantity += delta
		st.products[id] = p
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *productRepo) AppendAdjustment(_ context.Context, a *domain.StockAdjustment) error {
	return r.s.locked(func(st *memState) error {
		st.adjustments = append(st.adjustments, *a)
		return nil
	})
}

func (r *productRepo) ListAdjustments(_ context.Context, productID uuid.UUID, limit int) ([]domain.StockAdjustment, error) {
	var out []domain.StockAdjustment
	err := r.s.locked(func(st *memState) error {
		// Newest first.
		for i := len(st.adjustments) - 1; i >= 0; i-- {
			if st.adjustments[i].ProductID == productID {
				out = append(out, st.adjustments[i])
				if limit > 0 && len(out) == limit {
					return nil
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type orderRepo struct{ s *MemStore }

func (r *orderRepo) Create(_ context.Context, o *domain.Order) error {
	return r.s.locked(func(st *memState) error {
		for _, existing := range st.orders {
			if existing.OrderNumber == o.OrderNumber {
				return &domain.DuplicateError{Entity: "order", Field: "order_number", Value: o.OrderNumber}
			}
		}
		stored := *o
		stored.Lines = append([]domain.OrderLineItem(nil), o.Lines...)
		st.orders[o.ID] = stored
		st.orderSeq = append(st.orderSeq, o.ID)
		return nil
	})
}

func (r *orderRepo) Update(_ context.Context, o *domain.Order) error {
	return r.s.locked(func(st *memState) error {
		existing, ok := st.orders[o.ID]
		if !ok {
			return domain.NewNotFoundError("order", o.ID)
		}
		existing.Status = o.Status
		existing.PaymentStatus = o.PaymentStatus
		existing.TrackingNumber = o.TrackingNumber
		existing.Notes = o.Notes
		existing.UpdatedAt = o.UpdatedAt
		existing.ShippedAt = o.ShippedAt
		existing.DeliveredAt = o.DeliveredAt
		st.orders[o.ID] = existing
		return nil
	})
}

func (r *orderRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	var out domain.Order
	err := r.s.locked(func(st *memState) error {
		o, ok := st.orders[id]
		if !ok {
			return domain.NewNotFoundError("order", id)
		}
		out = o
		out.Lines = append([]domain.OrderLineItem(nil), o.Lines...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *orderRepo) List(_ context.Context, f repository.OrderFilter) ([]domain.Order, error) {
	var out []domain.Order
	err := r.s.locked(func(st *memState) error {
		// Newest first, matching insertion order reversed.
		for i := len(st.orderSeq) - 1; i >= 0; i-- {
			o := st.orders[st.orderSeq[i]]
			if f.Status != "" && o.Status != f.Status {
				continue
			}
			if f.CustomerID != nil && (o.CustomerID == nil || *o.CustomerID != *f.CustomerID) {
				continue
			}
			o.Lines = append([]domain.OrderLineItem(nil), o.Lines...)
			out = append(out, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paginate(out, f.Limit, f.Offset), nil
}

type couponRepo struct{ s *MemStore }

func (r *couponRepo) Create(_ context.Context, c *domain.Coupon) error {
	return r.s.locked(func(st *memState) error {
		for _, existing := range st.coupons {
			if strings.EqualFold(existing.Code, c.Code) {
				return &domain.DuplicateError{Entity: "coupon", Field: "code", Value: c.Code}
			}
		}
		st.coupons[c.ID] = *c
		st.couponSeq = append(st.couponSeq, c.ID)
		return nil
	})
}

func (r *couponRepo) Update(_ context.Context, c *domain.Coupon) error {
	return r.s.locked(func(st *memState) error {
		existing, ok := st.coupons[c.ID]
		if !ok {
			return domain.NewNotFoundError("coupon", c.ID)
		}
		// used_count advances only through Redeem.
		used := existing.UsedCount
		existing = *c
		existing.UsedCount = used
		st.coupons[c.ID] = existing
		return nil
	})
}

func (r *couponRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Coupon, error) {
	var out domain.Coupon
	err := r.s.locked(func(st *memState) error {
		c, ok := st.coupons[id]
		if !ok {
			return domain.NewNotFoundError("coupon", id)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *couponRepo) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	var out domain.Coupon
	err := r.s.locked(func(st *memState) error {
		for _, c := range st.coupons {
			if strings.EqualFold(c.Code, code) {
				out = c
				return nil
			}
		}
		return &domain.NotFoundError{Entity: "coupon", ID: code}
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *couponRepo) List(_ context.Context, limit, offset int) ([]domain.Coupon, error) {
	var out []domain.Coupon
	err := r.s.locked(func(st *memState) error {
		for i := len(st.couponSeq) - 1; i >= 0; i-- {
			out = append(out, st.coupons[st.couponSeq[i]])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paginate(out, limit, offset), nil
}

func (r *couponRepo) Redeem(_ context.Context, id uuid.UUID) error {
	return r.s.locked(func(st *memState) error {
		c, ok := st.coupons[id]
		if !ok {
			return domain.NewNotFoundError("coupon", id)
		}
		if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
			return &domain.ValidationError{Field: "coupon_code", Message: "usage limit reached"}
		}
		c.UsedCount++
		st.coupons[id] = c
		return nil
	})
}

type customerRepo struct{ s *MemStore }

func (r *customerRepo) Create(_ context.Context, c *domain.Customer) error {
	return r.s.locked(func(st *memState) error {
		for _, existing := range st.customers {
			if strings.EqualFold(existing.Email, c.Email) {
				return &domain.DuplicateError{Entity: "customer", Field: "email", Value: c.Email}
			}
		}
		st.customers[c.ID] = *c
		st.customerSeq = append(st.customerSeq, c.ID)
		return nil
	})
}

func (r *customerRepo) Update(_ context.Context, c *domain.Customer) error {
	return r.s.locked(func(st *memState) error {
		if _, ok := st.customers[c.ID]; !ok {
			return domain.NewNotFoundError("customer", c.ID)
		}
		st.customers[c.ID] = *c
		return nil
	})
}

func (r *customerRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Customer, error) {
	var out domain.Customer
	err := r.s.locked(func(st *memState) error {
		c, ok := st.customers[id]
		if !ok {
			return domain.NewNotFoundError("customer", id)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *customerRepo) List(_ context.Context, limit, offset int) ([]domain.Customer, error) {
	var out []domain.Customer
	err := r.s.locked(func(st *memState) error {
		for i := len(st.customerSeq) - 1; i >= 0; i-- {
			out = append(out, st.customers[st.customerSeq[i]])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paginate(out, limit, offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
