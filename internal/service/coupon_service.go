package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/repository"
)

// CouponService covers the administrative coupon CRUD and the preview
// endpoint. Redemption happens inside OrderWorkflow.Place; Validate never
// touches the usage counter.
type CouponService struct {
	store repository.Store
	now   func() time.Time
}

func NewCouponService(store repository.Store) *CouponService {
	return &CouponService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type CouponInput struct {
	Code               string
	Name               string
	Description        string
	DiscountType       domain.DiscountType
	DiscountValue      decimal.Decimal
	MinimumOrderAmount decimal.Decimal
	UsageLimit         *int
	IsActive           *bool
	ValidFrom          *time.Time
	ValidUntil         *time.Time
}

func (in CouponInput) validate() error {
	if in.Code == "" {
		return &domain.ValidationError{Field: "code", Message: "is required"}
	}
	if !in.DiscountType.Known() {
		return &domain.ValidationError{Field: "discount_type", Message: "must be percentage or fixed_amount"}
	}
	if !in.DiscountValue.IsPositive() {
		return &domain.ValidationError{Field: "discount_value", Message: "must be positive"}
	}
	if in.DiscountType == domain.DiscountPercentage && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return &domain.ValidationError{Field: "discount_value", Message: "percentage cannot exceed 100"}
	}
	if in.MinimumOrderAmount.IsNegative() {
		return &domain.ValidationError{Field: "minimum_order_amount", Message: "must not be negative"}
	}
	if in.UsageLimit != nil && *in.UsageLimit <= 0 {
		return &domain.ValidationError{Field: "usage_limit", Message: "must be positive when set"}
	}
	return nil
}

func (s *CouponService) Create(ctx context.Context, in CouponInput) (*domain.Coupon, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.now()
	coupon := &domain.Coupon{
		ID:                 uuid.New(),
		Code:               in.Code,
		Name:               in.Name,
		Description:        in.Description,
		DiscountType:       in.DiscountType,
		DiscountValue:      in.DiscountValue,
		MinimumOrderAmount: in.MinimumOrderAmount,
		UsageLimit:         in.UsageLimit,
		IsActive:           true,
		ValidFrom:          in.ValidFrom,
		ValidUntil:         in.ValidUntil,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if in.IsActive != nil {
		coupon.IsActive = *in.IsActive
	}
	if err := s.store.Coupons().Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *CouponService) Update(ctx context.Context, id uuid.UUID, in CouponInput) (*domain.Coupon, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	coupon, err := s.store.Coupons().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	coupon.Code = in.Code
	coupon.Name = in.Name
	coupon.Description = in.Description
	coupon.DiscountType = in.DiscountType
	coupon.DiscountValue = in.DiscountValue
	coupon.MinimumOrderAmount = in.MinimumOrderAmount
	coupon.UsageLimit = in.UsageLimit
	coupon.ValidFrom = in.ValidFrom
	coupon.ValidUntil = in.ValidUntil
	if in.IsActive != nil {
		coupon.IsActive = *in.IsActive
	}
	if err := s.store.Coupons().Update(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *CouponService) Get(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	return s.store.Coupons().GetByID(ctx, id)
}

func (s *CouponService) List(ctx context.Context, limit, offset int) ([]domain.Coupon, error) {
	return s.store.Coupons().List(ctx, limit, offset)
}

// ValidationResult is the preview answer for a coupon against an amount.
type ValidationResult struct {
	Valid    bool            `json:"valid"`
	Discount decimal.Decimal `json:"discount"`
}

// Validate previews a coupon without redeeming it.
func (s *CouponService) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (*ValidationResult, error) {
	coupon, err := s.store.Coupons().GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	now := s.now()
	discount := coupon.DiscountFor(orderAmount, now)
	return &ValidationResult{
		Valid:    coupon.ValidAt(now) && !orderAmount.LessThan(coupon.MinimumOrderAmount),
		Discount: discount,
	}, nil
}
