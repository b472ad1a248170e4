package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/boutique-commerce/backoffice/internal/domain"
)

type couponRepository struct {
	ext sqlx.ExtContext
}

const couponColumns = `id, code, name, description, discount_type, discount_value,
	minimum_order_amount, usage_limit, used_count, is_active,
	valid_from, valid_until, created_at, updated_at`

func (r *couponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	query := `
		INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.ext.ExecContext(ctx, query,
		c.ID, c.Code, c.Name, c.Description, c.DiscountType, c.DiscountValue,
		c.MinimumOrderAmount, c.UsageLimit, c.UsedCount, c.IsActive,
		c.ValidFrom, c.ValidUntil, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return &domain.DuplicateError{Entity: "coupon", Field: "code", Value: c.Code}
		}
		return persistErr("insert coupon", err)
	}
	return nil
}

// Update writes the administrative fields. used_count is excluded: it only
// moves through Redeem.
func (r *couponRepository) Update(ctx context.Context, c *domain.Coupon) error {
	query := `
		UPDATE coupons
		SET code = $2, name = $3, description = $4, discount_type = $5,
			discount_value = $6, minimum_order_amount = $7, usage_limit = $8,
			is_active = $9, valid_from = $10, valid_until = $11, updated_at = $12
		WHERE id = $1
	`
	res, err := r.ext.ExecContext(ctx, query,
		c.ID, c.Code, c.Name, c.Description, c.DiscountType,
		c.DiscountValue, c.MinimumOrderAmount, c.UsageLimit,
		c.IsActive, c.ValidFrom, c.ValidUntil, nowUTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return &domain.DuplicateError{Entity: "coupon", Field: "code", Value: c.Code}
		}
		return persistErr("update coupon", err)
	}
	return requireAffected(res, "coupon", c.ID)
}

func (r *couponRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	var c domain.Coupon
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.ext, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("coupon", id)
		}
		return nil, persistErr("get coupon", err)
	}
	return &c, nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`
	if err := sqlx.GetContext(ctx, r.ext, &c, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "coupon", ID: code}
		}
		return nil, persistErr("get coupon by code", err)
	}
	return &c, nil
}

func (r *couponRepository) List(ctx context.Context, limit, offset int) ([]domain.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT ` + placeholder(len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += ` OFFSET ` + placeholder(len(args))
	}
	var coupons []domain.Coupon
	if err := sqlx.SelectContext(ctx, r.ext, &coupons, query, args...); err != nil {
		return nil, persistErr("list coupons", err)
	}
	return coupons, nil
}

// Redeem is a single conditional increment, so usage-limited coupons cannot
// be oversold by concurrent checkouts.
func (r *couponRepository) Redeem(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = $2
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`
	res, err := r.ext.ExecContext(ctx, query, id, nowUTC())
	if err != nil {
		return persistErr("redeem coupon", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr("rows affected", err)
	}
	if n == 0 {
		// Either the coupon is gone or its limit was just exhausted.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return &domain.ValidationError{Field: "coupon_code", Message: "usage limit reached"}
	}
	return nil
}
