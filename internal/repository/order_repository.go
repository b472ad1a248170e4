package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/boutique-commerce/backoffice/internal/domain"
)

type orderRepository struct {
	ext sqlx.ExtContext
}

// orderRow carries the JSON address snapshots alongside the scannable
// header fields.
type orderRow struct {
	domain.Order
	ShippingJSON []byte `db:"shipping_address"`
	BillingJSON  []byte `db:"billing_address"`
}

const orderColumns = `id, customer_id, order_number, status, subtotal, discount_amount,
	tax_amount, shipping_cost, total_amount, currency, coupon_code,
	payment_status, payment_method, shipping_address, billing_address,
	tracking_number, notes, created_at, updated_at, shipped_at, delivered_at`

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	shippingJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return persistErr("marshal shipping address", err)
	}
	billingJSON, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return persistErr("marshal billing address", err)
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
				$12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err = r.ext.ExecContext(ctx, query,
		o.ID, o.CustomerID, o.OrderNumber, o.Status, o.Subtotal, o.DiscountAmount,
		o.TaxAmount, o.ShippingCost, o.TotalAmount, o.Currency, o.CouponCode,
		o.PaymentStatus, o.PaymentMethod, shippingJSON, billingJSON,
		o.TrackingNumber, o.Notes, o.CreatedAt, o.UpdatedAt, o.ShippedAt, o.DeliveredAt,
	)
	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return &domain.DuplicateError{Entity: "order", Field: "order_number", Value: o.OrderNumber}
		}
		return persistErr("insert order", err)
	}

	lineQuery := `
		INSERT INTO order_line_items (
			id, order_id, product_id, product_name, quantity, color, size,
			unit_price, line_total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, line := range o.Lines {
		_, err = r.ext.ExecContext(ctx, lineQuery,
			line.ID, line.OrderID, line.ProductID, line.ProductName, line.Quantity,
			line.Color, line.Size, line.UnitPrice, line.LineTotal,
		)
		if err != nil {
			return persistErr("insert order line item", err)
		}
	}
	return nil
}

func (r *orderRepository) Update(ctx context.Context, o *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $2, payment_status = $3, tracking_number = $4, notes = $5,
			updated_at = $6, shipped_at = $7, delivered_at = $8
		WHERE id = $1
	`
	res, err := r.ext.ExecContext(ctx, query,
		o.ID, o.Status, o.PaymentStatus, o.TrackingNumber, o.Notes,
		o.UpdatedAt, o.ShippedAt, o.DeliveredAt,
	)
	if err != nil {
		return persistErr("update order", err)
	}
	return requireAffected(res, "order", o.ID)
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var row orderRow
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.ext, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("order", id)
		}
		return nil, persistErr("get order", err)
	}

	order, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []interface{}{}

	if f.Status != "" {
		args = append(args, f.Status)
		query += ` AND status = ` + placeholder(len(args))
	}
	if f.CustomerID != nil {
		args = append(args, *f.CustomerID)
		query += ` AND customer_id = ` + placeholder(len(args))
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

	var rows []orderRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		return nil, persistErr("list orders", err)
	}

	orders := make([]domain.Order, 0, len(rows))
	for i := range rows {
		order, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		if err := r.loadLines(ctx, order); err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func (r *orderRepository) loadLines(ctx context.Context, o *domain.Order) error {
	query := `
		SELECT id, order_id, product_id, product_name, quantity, color, size,
			   unit_price, line_total
		FROM order_line_items
		WHERE order_id = $1
		ORDER BY id
	`
	if err := sqlx.SelectContext(ctx, r.ext, &o.Lines, query, o.ID); err != nil {
		return persistErr("list order line items", err)
	}
	return nil
}

func (row *orderRow) toDomain() (*domain.Order, error) {
	order := row.Order
	if err := json.Unmarshal(row.ShippingJSON, &order.ShippingAddress); err != nil {
		return nil, persistErr("unmarshal shipping address", err)
	}
	if err := json.Unmarshal(row.BillingJSON, &order.BillingAddress); err != nil {
		return nil, persistErr("unmarshal billing address", err)
	}
	return &order, nil
}
