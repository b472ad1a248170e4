package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/repository/repositorytest"
	"github.com/boutique-commerce/backoffice/internal/service"
)

func seedProduct(t *testing.T, store *repositorytest.MemStore, name string, price float64, quantity int) domain.Product {
	t.Helper()
	p := domain.NewProduct(name, "", decimal.NewFromFloat(price), quantity)
	store.SeedProduct(*p)
	return *p
}

func TestStockLedgerAdjustStanding(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.NewStore()
	ledger := service.NewStockLedger(store, nil)

	p := seedProduct(t, store, "Ceramic mug", 14.00, 10)

	product, adjustment, err := ledger.AdjustStanding(ctx, p.ID, -3, domain.ReasonSale, "")
	require.NoError(t, err)
	assert.Equal(t, 7, product.Quantity)
	assert.Equal(t, -3, adjustment.Delta)
	assert.Equal(t, 10, adjustment.PreviousQuantity)
	assert.Equal(t, 7, adjustment.NewQuantity)
	assert.Equal(t, domain.ReasonSale, adjustment.Reason)

	product, adjustment, err = ledger.AdjustStanding(ctx, p.ID, 5, domain.ReasonRestock, "weekly delivery")
	require.NoError(t, err)
	assert.Equal(t, 12, product.Quantity)
	assert.Equal(t, "weekly delivery", adjustment.Note)

	history, err := ledger.History(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest first.
	assert.Equal(t, domain.ReasonRestock, history[0].Reason)
	assert.Equal(t, domain.ReasonSale, history[1].Reason)
	for _, a := range history {
		assert.Equal(t, a.NewQuantity, a.PreviousQuantity+a.Delta)
	}
}

func TestStockLedgerRejectsOversell(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.NewStore()
	ledger := service.NewStockLedger(store, nil)

	p := seedProduct(t, store, "Ceramic mug", 14.00, 4)

	_, _, err := ledger.AdjustStanding(ctx, p.ID, -5, domain.ReasonSale, "")
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 4, stockErr.Available)

	// Nothing changed, nothing was logged.
	current, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, current.Quantity)

	history, err := ledger.History(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStockLedgerValidatesInput(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.NewStore()
	ledger := service.NewStockLedger(store, nil)

	p := seedProduct(t, store, "Ceramic mug", 14.00, 4)

	var vErr *domain.ValidationError
	_, _, err := ledger.AdjustStanding(ctx, p.ID, 0, domain.ReasonSale, "")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "quantity_change", vErr.Field)

	_, _, err = ledger.AdjustStanding(ctx, p.ID, 1, domain.AdjustmentReason("shrinkage"), "")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "reason", vErr.Field)
}

func TestStockLedgerHistoryUnknownProduct(t *testing.T) {
	ctx := context.Background()
	ledger := service.NewStockLedger(repositorytest.NewStore(), nil)

	_, err := ledger.History(ctx, uuid.New(), 0)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestStockLedgerConcurrentDeductionsNeverOversell(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.NewStore()
	ledger := service.NewStockLedger(store, nil)

	const initial = 10
	const workers = 25
	p := seedProduct(t, store, "Limited print", 120.00, initial)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := ledger.AdjustStanding(ctx, p.ID, -1, domain.ReasonSale, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *domain.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
	}
	assert.Equal(t, initial, succeeded)

	current, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, current.Quantity)

	history, err := ledger.History(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, initial)
}
