package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError signals a missing entity (product, customer, order, coupon).
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// NewNotFoundError builds a NotFoundError for a UUID-keyed entity.
func NewNotFoundError(entity string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// ValidationError signals a missing or malformed field in a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InsufficientStockError is returned when a deduction would drive a
// product's on-hand quantity below zero.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested=%d, available=%d",
		e.ProductName, e.Requested, e.Available)
}

// CancellationNotAllowedError is returned when an order can no longer be
// cancelled (shipped, delivered, or already cancelled).
type CancellationNotAllowedError struct {
	OrderID uuid.UUID
	Status  OrderStatus
}

func (e *CancellationNotAllowedError) Error() string {
	return fmt.Sprintf("order %s cannot be cancelled: status is %s", e.OrderID, e.Status)
}

// InvalidTransitionError is returned for an illegal order status change.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// DuplicateError signals a unique-constraint violation (order number
// collision, coupon code clash, customer email reuse).
type DuplicateError struct {
	Entity string
	Field  string
	Value  string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// PersistenceError wraps a storage failure. It always means the enclosing
// transaction was rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
