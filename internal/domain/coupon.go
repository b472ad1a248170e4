package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

func (t DiscountType) Known() bool {
	return t == DiscountPercentage || t == DiscountFixedAmount
}

type Coupon struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Code               string          `json:"code" db:"code"`
	Name               string          `json:"name" db:"name"`
	Description        string          `json:"description,omitempty" db:"description"`
	DiscountType       DiscountType    `json:"discount_type" db:"discount_type"`
	DiscountValue      decimal.Decimal `json:"discount_value" db:"discount_value"`
	MinimumOrderAmount decimal.Decimal `json:"minimum_order_amount" db:"minimum_order_amount"`
	UsageLimit         *int            `json:"usage_limit,omitempty" db:"usage_limit"`
	UsedCount          int             `json:"used_count" db:"used_count"`
	IsActive           bool            `json:"is_active" db:"is_active"`
	ValidFrom          *time.Time      `json:"valid_from,omitempty" db:"valid_from"`
	ValidUntil         *time.Time      `json:"valid_until,omitempty" db:"valid_until"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// ValidAt reports whether the coupon can be applied at the given instant:
// active, inside its validity window, and under its usage limit.
func (c *Coupon) ValidAt(at time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ValidFrom != nil && at.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && at.After(*c.ValidUntil) {
		return false
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false
	}
	return true
}

// DiscountFor computes the discount granted against orderAmount. Pure, no
// side effects; redemption accounting happens separately. Returns zero when
// the coupon is invalid or the order is below the minimum. A fixed-amount
// discount is capped at the order amount so the remainder never goes
// negative.
func (c *Coupon) DiscountFor(orderAmount decimal.Decimal, at time.Time) decimal.Decimal {
	if !c.ValidAt(at) || orderAmount.LessThan(c.MinimumOrderAmount) {
		return decimal.Zero
	}
	switch c.DiscountType {
	case DiscountPercentage:
		return orderAmount.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
	case DiscountFixedAmount:
		if c.DiscountValue.GreaterThan(orderAmount) {
			return orderAmount
		}
		return c.DiscountValue
	}
	return decimal.Zero
}
