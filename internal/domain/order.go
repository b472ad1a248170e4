package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Known() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Final reports whether the order can no longer be cancelled.
func (s OrderStatus) Final() bool {
	return s == OrderStatusShipped || s == OrderStatusDelivered
}

// orderTransitions lists the legal forward moves. Cancellation is not here:
// it goes through OrderWorkflow.Cancel, which also reverses stock.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusShipped},
	OrderStatusConfirmed: {OrderStatusShipped},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// CanTransition reports whether from may move to to. Re-setting the current
// status is allowed (and is a no-op for the set-once timestamps).
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Known() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// CanTransitionPayment validates the independent payment axis:
// pending -> completed | failed, completed -> refunded.
func CanTransitionPayment(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case PaymentStatusPending:
		return to == PaymentStatusCompleted || to == PaymentStatusFailed
	case PaymentStatusCompleted:
		return to == PaymentStatusRefunded
	}
	return false
}

// Address is snapshotted onto an order at creation time. Later edits to the
// customer's stored address never reach placed orders.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

func (a Address) Validate() error {
	if a.Street == "" {
		return &ValidationError{Field: "street", Message: "is required"}
	}
	if a.City == "" {
		return &ValidationError{Field: "city", Message: "is required"}
	}
	if a.Country == "" {
		return &ValidationError{Field: "country", Message: "is required"}
	}
	return nil
}

type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CustomerID      *uuid.UUID      `json:"customer_id,omitempty" db:"customer_id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	Status          OrderStatus     `json:"status" db:"status"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	ShippingCost    decimal.Decimal `json:"shipping_cost" db:"shipping_cost"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	Currency        string          `json:"currency" db:"currency"`
	CouponCode      string          `json:"coupon_code,omitempty" db:"coupon_code"`
	PaymentStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	PaymentMethod   string          `json:"payment_method,omitempty" db:"payment_method"`
	ShippingAddress Address         `json:"shipping_address" db:"-"`
	BillingAddress  Address         `json:"billing_address" db:"-"`
	TrackingNumber  string          `json:"tracking_number,omitempty" db:"tracking_number"`
	Notes           string          `json:"notes,omitempty" db:"notes"`
	Lines           []OrderLineItem `json:"items" db:"-"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty" db:"shipped_at"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty" db:"delivered_at"`
}

// OrderLineItem is owned by exactly one order. UnitPrice is frozen at order
// time and never tracks later catalog price changes.
type OrderLineItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OrderID     uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID   uuid.UUID       `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Color       string          `json:"color,omitempty" db:"color"`
	Size        string          `json:"size,omitempty" db:"size"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total" db:"line_total"`
}

// NewOrder builds a pending order shell. Billing address falls back to the
// shipping address when empty.
func NewOrder(customerID *uuid.UUID, shipping Address, billing *Address, currency string) *Order {
	now := time.Now().UTC()
	bill := shipping
	if billing != nil {
		bill = *billing
	}
	return &Order{
		ID:              uuid.New(),
		CustomerID:      customerID,
		OrderNumber:     GenerateOrderNumber(now),
		Status:          OrderStatusPending,
		Subtotal:        decimal.Zero,
		DiscountAmount:  decimal.Zero,
		TaxAmount:       decimal.Zero,
		ShippingCost:    decimal.Zero,
		TotalAmount:     decimal.Zero,
		Currency:        currency,
		PaymentStatus:   PaymentStatusPending,
		ShippingAddress: shipping,
		BillingAddress:  bill,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// GenerateOrderNumber produces a date-stamped human readable number with a
// random suffix. Uniqueness is enforced by the store; callers retry on a
// collision.
func GenerateOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:8])
	return fmt.Sprintf("ORD-%s-%s", at.UTC().Format("20060102"), suffix)
}

// AddLine appends a line item with the given frozen unit price and keeps the
// subtotal in sync.
func (o *Order) AddLine(product *Product, quantity int, color, size string) *OrderLineItem {
	line := OrderLineItem{
		ID:          uuid.New(),
		OrderID:     o.ID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		Color:       color,
		Size:        size,
		UnitPrice:   product.Price,
		LineTotal:   product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
	o.Lines = append(o.Lines, line)
	o.Subtotal = o.Subtotal.Add(line.LineTotal)
	return &o.Lines[len(o.Lines)-1]
}

// RecomputeTotal derives the grand total from the component amounts.
// The discount is capped at the subtotal so the total never goes negative.
func (o *Order) RecomputeTotal() {
	if o.DiscountAmount.GreaterThan(o.Subtotal) {
		o.DiscountAmount = o.Subtotal
	}
	o.TotalAmount = o.Subtotal.Sub(o.DiscountAmount).Add(o.TaxAmount).Add(o.ShippingCost)
}

// MarkStatus applies a validated transition, stamping shipped_at and
// delivered_at the first time those states are reached. The stamps are
// set-once: repeating a status never overwrites them.
func (o *Order) MarkStatus(to OrderStatus, at time.Time) error {
	if !CanTransition(o.Status, to) {
		return &InvalidTransitionError{From: o.Status, To: to}
	}
	o.Status = to
	o.UpdatedAt = at
	switch to {
	case OrderStatusShipped:
		if o.ShippedAt == nil {
			t := at
			o.ShippedAt = &t
		}
	case OrderStatusDelivered:
		if o.DeliveredAt == nil {
			t := at
			o.DeliveredAt = &t
		}
	}
	return nil
}

func (o *Order) ItemCount() int {
	n := 0
	for _, line := range o.Lines {
		n += line.Quantity
	}
	return n
}
