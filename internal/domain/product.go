package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	SKU           string          `json:"sku,omitempty" db:"sku"`
	Price         decimal.Decimal `json:"price" db:"price"`
	OriginalPrice decimal.Decimal `json:"original_price" db:"original_price"`
	Quantity      int             `json:"quantity" db:"quantity"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	IsBestseller  bool            `json:"is_bestseller" db:"is_bestseller"`
	ImageURL      string          `json:"image_url,omitempty" db:"image_url"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

func NewProduct(name, description string, price decimal.Decimal, quantity int) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Price:       price,
		Quantity:    quantity,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (p *Product) InStock() bool {
	return p.Quantity > 0
}

// AdjustmentReason categorizes a stock change. Opaque for the arithmetic,
// kept for reporting.
type AdjustmentReason string

const (
	ReasonSale              AdjustmentReason = "sale"
	ReasonOrderCancellation AdjustmentReason = "order_cancellation"
	ReasonManualAdjustment  AdjustmentReason = "manual_adjustment"
	ReasonRestock           AdjustmentReason = "restock"
	ReasonReturn            AdjustmentReason = "return"
)

func (r AdjustmentReason) Known() bool {
	switch r {
	case ReasonSale, ReasonOrderCancellation, ReasonManualAdjustment, ReasonRestock, ReasonReturn:
		return true
	}
	return false
}

// StockAdjustment is the immutable audit record paired with every stock
// mutation. For any product the rows must reconcile:
// new_quantity == previous_quantity + delta, at every point in the trail.
type StockAdjustment struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	ProductID        uuid.UUID        `json:"product_id" db:"product_id"`
	Delta            int              `json:"delta" db:"delta"`
	PreviousQuantity int              `json:"previous_quantity" db:"previous_quantity"`
	NewQuantity      int              `json:"new_quantity" db:"new_quantity"`
	Reason           AdjustmentReason `json:"reason" db:"reason"`
	Note             string           `json:"note,omitempty" db:"note"`
	OrderID          *uuid.UUID       `json:"order_id,omitempty" db:"order_id"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// NewStockAdjustment records a change that moved a product's quantity to
// newQuantity by delta.
func NewStockAdjustment(productID uuid.UUID, delta, newQuantity int, reason AdjustmentReason, orderID *uuid.UUID, note string) *StockAdjustment {
	return &StockAdjustment{
		ID:               uuid.New(),
		ProductID:        productID,
		Delta:            delta,
		PreviousQuantity: newQuantity - delta,
		NewQuantity:      newQuantity,
		Reason:           reason,
		Note:             note,
		OrderID:          orderID,
		CreatedAt:        time.Now().UTC(),
	}
}
