package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/boutique-commerce/backoffice/internal/domain"
)

type productRepository struct {
	ext sqlx.ExtContext
}

const productColumns = `id, name, description, sku, price, original_price, quantity,
	is_active, is_bestseller, image_url, created_at, updated_at`

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.ext.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.SKU, p.Price, p.OriginalPrice, p.Quantity,
		p.IsActive, p.IsBestseller, p.ImageURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return &domain.DuplicateError{Entity: "product", Field: "sku", Value: p.SKU}
		}
		return persistErr("insert product", err)
	}
	return nil
}

// Update writes the descriptive fields only. Quantity changes go through
// AdjustQuantity so every change carries an audit row.
func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, sku = $4, price = $5, original_price = $6,
			is_active = $7, is_bestseller = $8, image_url = $9, updated_at = $10
		WHERE id = $1
	`
	res, err := r.ext.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.SKU, p.Price, p.OriginalPrice,
		p.IsActive, p.IsBestseller, p.ImageURL, nowUTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return &domain.DuplicateError{Entity: "product", Field: "sku", Value: p.SKU}
		}
		return persistErr("update product", err)
	}
	return requireAffected(res, "product", p.ID)
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.ext, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("product", id)
		}
		return nil, persistErr("get product", err)
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}

	if !f.IncludeHidden {
		query += ` AND is_active = true`
	}
	if f.BestsellerOnly {
		query += ` AND is_bestseller = true`
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		p := placeholder(len(args))
		query += ` AND (name ILIKE ` + p + ` OR description ILIKE ` + p + `)`
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT ` + placeholder(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += ` OFFSET ` + placeholder(len(args))
	}

	var products []domain.Product
	if err := sqlx.SelectContext(ctx, r.ext, &products, query, args...); err != nil {
		return nil, persistErr("list products", err)
	}
	return products, nil
}

func (r *productRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.ext.ExecContext(ctx,
		`UPDATE products SET is_active = false, updated_at = $2 WHERE id = $1`, id, nowUTC())
	if err != nil {
		return persistErr("deactivate product", err)
	}
	return requireAffected(res, "product", id)
}

// AdjustQuantity serializes concurrent stock changes: the WHERE clause
// re-checks the non-negative invariant inside the same statement, so a
// losing concurrent deduction observes InsufficientStockError instead of
// driving the quantity negative.
func (r *productRepository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	var p domain.Product
	query := `
		UPDATE products
		SET quantity = quantity + $2, updated_at = $3
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING ` + productColumns
	err := sqlx.GetContext(ctx, r.ext, &p, query, id, delta, nowUTC())
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, persistErr("adjust product quantity", err)
	}

	// No row matched: either the product is gone or the deduction would
	// oversell. Distinguish for the caller.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &domain.InsufficientStockError{
		ProductID:   id,
		ProductName: current.Name,
		Requested:   -delta,
		Available:   current.Quantity,
	}
}

func (r *productRepository) AppendAdjustment(ctx context.Context, a *domain.StockAdjustment) error {
	query := `
		INSERT INTO stock_adjustments (
			id, product_id, delta, previous_quantity, new_quantity,
			reason, note, order_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.ext.ExecContext(ctx, query,
		a.ID, a.ProductID, a.Delta, a.PreviousQuantity, a.NewQuantity,
		a.Reason, a.Note, a.OrderID, a.CreatedAt,
	)
	if err != nil {
		return persistErr("insert stock adjustment", err)
	}
	return nil
}

func (r *productRepository) ListAdjustments(ctx context.Context, productID uuid.UUID, limit int) ([]domain.StockAdjustment, error) {
	query := `
		SELECT id, product_id, delta, previous_quantity, new_quantity,
			   reason, note, order_id, created_at
		FROM stock_adjustments
		WHERE product_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{productID}
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $2`
	}
	var adjustments []domain.StockAdjustment
	if err := sqlx.SelectContext(ctx, r.ext, &adjustments, query, args...); err != nil {
		return nil, persistErr("list stock adjustments", err)
	}
	return adjustments, nil
}
