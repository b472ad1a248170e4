package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/repository"
)

// StockLedger is the only sanctioned path for changing a product's on-hand
// quantity. Every change is paired with exactly one immutable
// StockAdjustment row, and a committed deduction can never drive the
// quantity negative.
type StockLedger struct {
	store  repository.Store
	events EventPublisher
}

func NewStockLedger(store repository.Store, events EventPublisher) *StockLedger {
	if events == nil {
		events = NopPublisher{}
	}
	return &StockLedger{store: store, events: events}
}

// Adjust applies a signed delta and its audit row against the given store,
// which may be transaction-scoped (checkout, cancellation) or the root
// store. Deductions and additions share this one codepath.
func (l *StockLedger) Adjust(ctx context.Context, s repository.Store, productID uuid.UUID, delta int, reason domain.AdjustmentReason, orderID *uuid.UUID, note string) (*domain.Product, *domain.StockAdjustment, error) {
	if delta == 0 {
		return nil, nil, &domain.ValidationError{Field: "quantity_change", Message: "must be non-zero"}
	}
	if !reason.Known() {
		return nil, nil, &domain.ValidationError{Field: "reason", Message: "unknown adjustment reason"}
	}

	product, err := s.Products().AdjustQuantity(ctx, productID, delta)
	if err != nil {
		return nil, nil, err
	}

	adjustment := domain.NewStockAdjustment(product.ID, delta, product.Quantity, reason, orderID, note)
	if err := s.Products().AppendAdjustment(ctx, adjustment); err != nil {
		return nil, nil, err
	}

	log.Debug().
		Str("product_id", product.ID.String()).
		Int("delta", delta).
		Int("quantity", product.Quantity).
		Str("reason", string(reason)).
		Msg("stock adjusted")

	return product, adjustment, nil
}

// AdjustStanding runs Adjust in its own transaction, for callers outside an
// order workflow (the manual stock endpoint, restocks, returns).
func (l *StockLedger) AdjustStanding(ctx context.Context, productID uuid.UUID, delta int, reason domain.AdjustmentReason, note string) (*domain.Product, *domain.StockAdjustment, error) {
	var product *domain.Product
	var adjustment *domain.StockAdjustment
	err := l.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		product, adjustment, err = l.Adjust(ctx, tx, productID, delta, reason, nil, note)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if err := l.events.Publish("stock.adjusted", adjustment); err != nil {
		log.Warn().Err(err).Str("product_id", productID.String()).Msg("event publish failed")
	}
	return product, adjustment, nil
}

// History returns the audit trail for a product, newest first.
func (l *StockLedger) History(ctx context.Context, productID uuid.UUID, limit int) ([]domain.StockAdjustment, error) {
	if _, err := l.store.Products().GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return l.store.Products().ListAdjustments(ctx, productID, limit)
}
