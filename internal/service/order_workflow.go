package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/repository"
)

// orderNumberAttempts bounds how many times Place reruns the placement
// transaction when the random order-number suffix collides. A unique
// violation poisons the database transaction it happens in, so each retry
// must start a fresh transaction with a fresh number.
const orderNumberAttempts = 3

// EventPublisher pushes a domain event to the message broker. Publishing is
// best-effort: it runs after commit and never unwinds a workflow.
type EventPublisher interface {
	Publish(eventType string, payload interface{}) error
}

// NopPublisher drops events; used when the broker is unavailable or in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(string, interface{}) error { return nil }

// LineRequest is one requested order line.
type LineRequest struct {
	ProductID uuid.UUID
	Quantity  int
	Color     string
	Size      string
}

// PlaceOrderInput carries everything Place needs. CustomerID nil means a
// guest order. Tax and shipping come from an external pricing collaborator
// and default to zero.
type PlaceOrderInput struct {
	CustomerID      *uuid.UUID
	ShippingAddress domain.Address
	BillingAddress  *domain.Address
	Lines           []LineRequest
	CouponCode      string
	TaxAmount       decimal.Decimal
	ShippingCost    decimal.Decimal
	PaymentMethod   string
	Notes           string
}

// OrderWorkflow orchestrates order placement, status transitions and
// cancellation as all-or-nothing transactional units.
type OrderWorkflow struct {
	store    repository.Store
	ledger   *StockLedger
	events   EventPublisher
	currency string
	now      func() time.Time
}

func NewOrderWorkflow(store repository.Store, ledger *StockLedger, events EventPublisher, currency string) *OrderWorkflow {
	if events == nil {
		events = NopPublisher{}
	}
	return &OrderWorkflow{
		store:    store,
		ledger:   ledger,
		events:   events,
		currency: currency,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Place creates an order with its line items, deducting stock for every
// line through the StockLedger inside one transaction. Any failure (a
// missing product, an oversell, a coupon problem) aborts the whole set:
// no stock mutation and no order rows survive. An order-number collision
// rolls the transaction back like any other failure, and placement reruns
// from the top with a fresh number.
func (w *OrderWorkflow) Place(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	if err := w.validatePlaceInput(in); err != nil {
		return nil, err
	}

	var order *domain.Order
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order, err = w.placeOnce(ctx, in)
		if err == nil {
			break
		}
		var dup *domain.DuplicateError
		if !errors.As(err, &dup) || dup.Field != "order_number" {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	w.publish("order.created", order)
	if order.CouponCode != "" {
		w.publish("coupon.redeemed", map[string]interface{}{
			"coupon_code": order.CouponCode,
			"order_id":    order.ID,
			"discount":    order.DiscountAmount,
		})
	}
	log.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("total", order.TotalAmount.String()).
		Int("items", order.ItemCount()).
		Msg("order placed")
	return order, nil
}

// placeOnce runs one placement transaction. NewOrder draws a random order
// number, so rerunning the transaction is what retries a collision.
func (w *OrderWorkflow) placeOnce(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	var order *domain.Order
	err := w.store.InTx(ctx, func(tx repository.Store) error {
		if in.CustomerID != nil {
			if _, err := tx.Customers().GetByID(ctx, *in.CustomerID); err != nil {
				return err
			}
		}

		order = domain.NewOrder(in.CustomerID, in.ShippingAddress, in.BillingAddress, w.currency)
		order.TaxAmount = in.TaxAmount
		order.ShippingCost = in.ShippingCost
		order.PaymentMethod = in.PaymentMethod
		order.Notes = in.Notes

		for _, req := range in.Lines {
			product, err := tx.Products().GetByID(ctx, req.ProductID)
			if err != nil {
				return err
			}
			if product.Quantity < req.Quantity {
				return &domain.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   req.Quantity,
					Available:   product.Quantity,
				}
			}

			// Freeze the unit price before the deduction touches the row.
			order.AddLine(product, req.Quantity, req.Color, req.Size)

			if _, _, err := w.ledger.Adjust(ctx, tx, product.ID, -req.Quantity, domain.ReasonSale, &order.ID, ""); err != nil {
				return err
			}
		}

		if in.CouponCode != "" {
			if err := w.applyCoupon(ctx, tx, order, in.CouponCode); err != nil {
				return err
			}
		}
		order.RecomputeTotal()

		return tx.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (w *OrderWorkflow) validatePlaceInput(in PlaceOrderInput) error {
	if len(in.Lines) == 0 {
		return &domain.ValidationError{Field: "items", Message: "at least one item is required"}
	}
	for _, req := range in.Lines {
		if req.ProductID == uuid.Nil {
			return &domain.ValidationError{Field: "product_id", Message: "is required"}
		}
		if req.Quantity <= 0 {
			return &domain.ValidationError{Field: "quantity", Message: "must be positive"}
		}
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return err
	}
	if in.BillingAddress != nil {
		if err := in.BillingAddress.Validate(); err != nil {
			return err
		}
	}
	if in.TaxAmount.IsNegative() {
		return &domain.ValidationError{Field: "tax_amount", Message: "must not be negative"}
	}
	if in.ShippingCost.IsNegative() {
		return &domain.ValidationError{Field: "shipping_cost", Message: "must not be negative"}
	}
	return nil
}

// applyCoupon validates the coupon against the order subtotal, records the
// discount, and redeems it within the placement transaction. An invalid or
// below-minimum coupon fails the placement rather than silently granting
// nothing.
func (w *OrderWorkflow) applyCoupon(ctx context.Context, tx repository.Store, order *domain.Order, code string) error {
	coupon, err := tx.Coupons().GetByCode(ctx, code)
	if err != nil {
		return err
	}
	now := w.now()
	if !coupon.ValidAt(now) {
		return &domain.ValidationError{Field: "coupon_code", Message: "coupon is not valid"}
	}
	if order.Subtotal.LessThan(coupon.MinimumOrderAmount) {
		return &domain.ValidationError{Field: "coupon_code", Message: "order is below the coupon minimum"}
	}
	if err := tx.Coupons().Redeem(ctx, coupon.ID); err != nil {
		return err
	}
	order.CouponCode = coupon.Code
	order.DiscountAmount = coupon.DiscountFor(order.Subtotal, now)
	return nil
}

// UpdateOrderInput carries the order header fields an administrator can
// change. A nil pointer leaves the corresponding axis untouched.
type UpdateOrderInput struct {
	Status         *domain.OrderStatus
	PaymentStatus  *domain.PaymentStatus
	TrackingNumber string
}

// Update applies a fulfillment move and a payment move together in one
// transaction, so a rejected payment transition never leaves a half-applied
// status change behind.
func (w *OrderWorkflow) Update(ctx context.Context, id uuid.UUID, in UpdateOrderInput) (*domain.Order, error) {
	if in.Status != nil {
		if !in.Status.Known() {
			return nil, &domain.ValidationError{Field: "status", Message: "unknown status"}
		}
		if *in.Status == domain.OrderStatusCancelled {
			return nil, &domain.ValidationError{Field: "status", Message: "use the cancellation endpoint to cancel an order"}
		}
	}
	if in.PaymentStatus != nil && !in.PaymentStatus.Known() {
		return nil, &domain.ValidationError{Field: "payment_status", Message: "unknown payment status"}
	}

	var order *domain.Order
	err := w.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		order, err = tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Status != nil {
			if err := order.MarkStatus(*in.Status, w.now()); err != nil {
				return err
			}
			if in.TrackingNumber != "" {
				order.TrackingNumber = in.TrackingNumber
			}
		}
		if in.PaymentStatus != nil {
			if !domain.CanTransitionPayment(order.PaymentStatus, *in.PaymentStatus) {
				return &domain.ValidationError{
					Field:   "payment_status",
					Message: "cannot move from " + string(order.PaymentStatus) + " to " + string(*in.PaymentStatus),
				}
			}
			order.PaymentStatus = *in.PaymentStatus
			order.UpdatedAt = w.now()
		}
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	if in.Status != nil {
		w.publish("order.status_changed", order)
	}
	return order, nil
}

// UpdateStatus moves an order along the pending -> confirmed -> shipped ->
// delivered chain. shipped_at and delivered_at are stamped the first time
// only.
func (w *OrderWorkflow) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, trackingNumber string) (*domain.Order, error) {
	return w.Update(ctx, id, UpdateOrderInput{Status: &status, TrackingNumber: trackingNumber})
}

// UpdatePaymentStatus moves the independent payment axis:
// pending -> completed | failed, completed -> refunded.
func (w *OrderWorkflow) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) (*domain.Order, error) {
	return w.Update(ctx, id, UpdateOrderInput{PaymentStatus: &status})
}

// Cancel restores stock for every line and marks the order cancelled, in
// one transaction. Shipped and delivered orders are final; re-cancelling a
// cancelled order is rejected so stock is never credited twice. Products
// deleted since the sale are skipped: their stock cannot be restored, but
// the order still cancels. The order and its lines are never deleted.
func (w *OrderWorkflow) Cancel(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order *domain.Order
	err := w.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		order, err = tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status.Final() || order.Status == domain.OrderStatusCancelled {
			return &domain.CancellationNotAllowedError{OrderID: order.ID, Status: order.Status}
		}

		for _, line := range order.Lines {
			_, _, err := w.ledger.Adjust(ctx, tx, line.ProductID, line.Quantity, domain.ReasonOrderCancellation, &order.ID, "")
			if err != nil {
				var notFound *domain.NotFoundError
				if errors.As(err, &notFound) {
					log.Warn().
						Str("order_id", order.ID.String()).
						Str("product_id", line.ProductID.String()).
						Msg("product no longer exists, skipping stock restoration")
					continue
				}
				return err
			}
		}

		order.Status = domain.OrderStatusCancelled
		order.UpdatedAt = w.now()
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	w.publish("order.cancelled", order)
	log.Info().Str("order_id", order.ID.String()).Msg("order cancelled")
	return order, nil
}

func (w *OrderWorkflow) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return w.store.Orders().GetByID(ctx, id)
}

func (w *OrderWorkflow) List(ctx context.Context, f repository.OrderFilter) ([]domain.Order, error) {
	return w.store.Orders().List(ctx, f)
}

func (w *OrderWorkflow) publish(eventType string, payload interface{}) {
	if err := w.events.Publish(eventType, payload); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("event publish failed")
	}
}
