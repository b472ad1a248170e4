package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/httpx"
	"github.com/boutique-commerce/backoffice/internal/service"
)

type CouponHandler struct {
	coupons *service.CouponService
}

func NewCouponHandler(coupons *service.CouponService) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

type CouponRequest struct {
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	DiscountType       string          `json:"discount_type"`
	DiscountValue      decimal.Decimal `json:"discount_value"`
	MinimumOrderAmount decimal.Decimal `json:"minimum_order_amount"`
	UsageLimit         *int            `json:"usage_limit"`
	IsActive           *bool           `json:"is_active"`
	ValidFrom          *time.Time      `json:"valid_from"`
	ValidUntil         *time.Time      `json:"valid_until"`
}

func (r CouponRequest) toInput() service.CouponInput {
	return service.CouponInput{
		Code:               r.Code,
		Name:               r.Name,
		Description:        r.Description,
		DiscountType:       domain.DiscountType(r.DiscountType),
		DiscountValue:      r.DiscountValue,
		MinimumOrderAmount: r.MinimumOrderAmount,
		UsageLimit:         r.UsageLimit,
		IsActive:           r.IsActive,
		ValidFrom:          r.ValidFrom,
		ValidUntil:         r.ValidUntil,
	}
}

// ValidateCouponRequest previews the discount a code would yield for an order
// amount. It never consumes a use.
type ValidateCouponRequest struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"order_amount"`
}

func (h *CouponHandler) Create(c *fiber.Ctx) error {
	var request CouponRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequest(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	coupon, err := h.coupons.Create(c.Context(), request.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Created(c, "Coupon created successfully", coupon)
}

func (h *CouponHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid coupon ID", map[string]interface{}{
			"coupon_id": c.Params("id"),
		})
	}

	coupon, err := h.coupons.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Coupon retrieved successfully", coupon)
}

func (h *CouponHandler) List(c *fiber.Ctx) error {
	coupons, err := h.coupons.List(c.Context(), queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Coupons retrieved successfully", coupons)
}

func (h *CouponHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid coupon ID", map[string]interface{}{
			"coupon_id": c.Params("id"),
		})
	}

	var request CouponRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequest(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	coupon, err := h.coupons.Update(c.Context(), id, request.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Coupon updated successfully", coupon)
}

func (h *CouponHandler) Validate(c *fiber.Ctx) error {
	var request ValidateCouponRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequest(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}
	if request.Code == "" {
		return httpx.BadRequest(c, "code is required", nil)
	}

	result, err := h.coupons.Validate(c.Context(), request.Code, request.OrderAmount)
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Coupon validated", result)
}
