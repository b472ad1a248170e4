package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boutique-commerce/backoffice/internal/domain"
)

type AddressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

func (r *AddressRequest) toDomain() domain.Address {
	return domain.Address{
		Street:  r.Street,
		City:    r.City,
		State:   r.State,
		ZipCode: r.ZipCode,
		Country: r.Country,
	}
}

type CreateOrderRequest struct {
	CustomerID      *uuid.UUID         `json:"customer_id"`
	Items           []OrderItemRequest `json:"items"`
	ShippingAddress AddressRequest     `json:"shipping_address"`
	BillingAddress  *AddressRequest    `json:"billing_address"`
	CouponCode      string             `json:"coupon_code"`
	TaxAmount       decimal.Decimal    `json:"tax_amount"`
	ShippingCost    decimal.Decimal    `json:"shipping_cost"`
	PaymentMethod   string             `json:"payment_method"`
	Notes           string             `json:"notes"`
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
}

type UpdateOrderRequest struct {
	Status         string `json:"status"`
	PaymentStatus  string `json:"payment_status"`
	TrackingNumber string `json:"tracking_number"`
}

type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	CustomerID      *uuid.UUID          `json:"customer_id,omitempty"`
	OrderNumber     string              `json:"order_number"`
	Status          string              `json:"status"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	TaxAmount       decimal.Decimal     `json:"tax_amount"`
	ShippingCost    decimal.Decimal     `json:"shipping_cost"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Currency        string              `json:"currency"`
	CouponCode      string              `json:"coupon_code,omitempty"`
	PaymentStatus   string              `json:"payment_status"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
	ShippingAddress domain.Address      `json:"shipping_address"`
	BillingAddress  domain.Address      `json:"billing_address"`
	TrackingNumber  string              `json:"tracking_number,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	ItemCount       int                 `json:"item_count"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
}

type OrderItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Color       string          `json:"color,omitempty"`
	Size        string          `json:"size,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

func mapOrder(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Lines))
	for i, line := range o.Lines {
		items[i] = OrderItemResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Color:       line.Color,
			Size:        line.Size,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		}
	}
	return OrderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		Subtotal:        o.Subtotal,
		DiscountAmount:  o.DiscountAmount,
		TaxAmount:       o.TaxAmount,
		ShippingCost:    o.ShippingCost,
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
		CouponCode:      o.CouponCode,
		PaymentStatus:   string(o.PaymentStatus),
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		TrackingNumber:  o.TrackingNumber,
		Notes:           o.Notes,
		ItemCount:       o.ItemCount(),
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
	}
}

func mapOrders(orders []domain.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = mapOrder(&orders[i])
	}
	return responses
}
