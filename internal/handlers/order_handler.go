package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/httpx"
	"github.com/boutique-commerce/backoffice/internal/repository"
	"github.com/boutique-commerce/backoffice/internal/service"
)

type OrderHandler struct {
	workflow *service.OrderWorkflow
}

func NewOrderHandler(workflow *service.OrderWorkflow) *OrderHandler {
	return &OrderHandler{workflow: workflow}
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var request CreateOrderRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequest(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	lines := make([]service.LineRequest, len(request.Items))
	for i, item := range request.Items {
		lines[i] = service.LineRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Color:     item.Color,
			Size:      item.Size,
		}
	}

	input := service.PlaceOrderInput{
		CustomerID:      request.CustomerID,
		ShippingAddress: request.ShippingAddress.toDomain(),
		Lines:           lines,
		CouponCode:      request.CouponCode,
		TaxAmount:       request.TaxAmount,
		ShippingCost:    request.ShippingCost,
		PaymentMethod:   request.PaymentMethod,
		Notes:           request.Notes,
	}
	if request.BillingAddress != nil {
		billing := request.BillingAddress.toDomain()
		input.BillingAddress = &billing
	}

	order, err := h.workflow.Place(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Created(c, "Order created successfully", mapOrder(order))
}

func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid order ID", map[string]interface{}{
			"order_id": c.Params("id"),
		})
	}

	order, err := h.workflow.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Order retrieved successfully", mapOrder(order))
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	filter := repository.OrderFilter{
		Status: domain.OrderStatus(c.Query("status")),
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}
	if customerIDStr := c.Query("customer_id"); customerIDStr != "" {
		customerID, err := uuid.Parse(customerIDStr)
		if err != nil {
			return httpx.BadRequest(c, "Invalid customer ID", map[string]interface{}{
				"customer_id": customerIDStr,
			})
		}
		filter.CustomerID = &customerID
	}
	if filter.Status != "" && !filter.Status.Known() {
		return httpx.BadRequest(c, "Unknown order status", map[string]interface{}{
			"status": string(filter.Status),
		})
	}

	orders, err := h.workflow.List(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Orders retrieved successfully", mapOrders(orders))
}

// Update moves the fulfillment status and/or the payment status in one
// transactional unit, and may attach a tracking number alongside a status
// change.
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid order ID", map[string]interface{}{
			"order_id": c.Params("id"),
		})
	}

	var request UpdateOrderRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequest(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}
	if request.Status == "" && request.PaymentStatus == "" {
		return httpx.BadRequest(c, "status or payment_status is required", nil)
	}

	input := service.UpdateOrderInput{TrackingNumber: request.TrackingNumber}
	if request.Status != "" {
		status := domain.OrderStatus(request.Status)
		input.Status = &status
	}
	if request.PaymentStatus != "" {
		payment := domain.PaymentStatus(request.PaymentStatus)
		input.PaymentStatus = &payment
	}

	order, err := h.workflow.Update(c.Context(), id, input)
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Order updated successfully", mapOrder(order))
}

// Cancel restores stock and marks the order cancelled. The order itself is
// never deleted.
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid order ID", map[string]interface{}{
			"order_id": c.Params("id"),
		})
	}

	order, err := h.workflow.Cancel(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Order cancelled successfully", mapOrder(order))
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			return v
		}
	}
	return fallback
}
