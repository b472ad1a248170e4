package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/repository"
	"github.com/boutique-commerce/backoffice/internal/repository/repositorytest"
	"github.com/boutique-commerce/backoffice/internal/service"
)

func newCatalog(store *repositorytest.MemStore) *service.CatalogService {
	return service.NewCatalogService(store, service.NewStockLedger(store, nil))
}

func TestCatalogCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.NewStore()
	catalog := newCatalog(store)

	product, err := catalog.Create(ctx, service.ProductInput{
		Name:     "Olive oil 1L",
		SKU:      "OIL-1L",
		Price:    decimal.NewFromFloat(18.50),
		Quantity: 40,
	})
	require.NoError(t, err)
	assert.True(t, product.IsActive)
	assert.Equal(t, 40, product.Quantity)

	// Update ignores the quantity field; stock only moves via AdjustStock.
	updated, err := catalog.Update(ctx, product.ID, service.ProductInput{
		Name:     "Olive oil 1L extra virgin",
		SKU:      "OIL-1L",
		Price:    decimal.NewFromFloat(21.00),
		Quantity: 999,
	})
	require.NoError(t, err)
	assert.Equal(t, "Olive oil 1L extra virgin", updated.Name)

	stored, err := catalog.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, stored.Quantity)
}

func TestCatalogCreateValidation(t *testing.T) {
	ctx := context.Background()
	catalog := newCatalog(repositorytest.NewStore())

	var vErr *domain.ValidationError
	_, err := catalog.Create(ctx, service.ProductInput{Price: decimal.NewFromInt(10)})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)

	_, err = catalog.Create(ctx, service.ProductInput{Name: "Free thing"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "price", vErr.Field)

	_, err = catalog.Create(ctx, service.ProductInput{Name: "X", Price: decimal.NewFromInt(5), Quantity: -1})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "quantity", vErr.Field)
}

func TestCatalogDeactivateHidesFromListing(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.NewStore()
	catalog := newCatalog(store)

	product, err := catalog.Create(ctx, service.ProductInput{
		Name: "Linen shirt", Price: decimal.NewFromFloat(49.90), Quantity: 10,
	})
	require.NoError(t, err)
	require.NoError(t, catalog.Deactivate(ctx, product.ID))

	visible, err := catalog.List(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := catalog.List(ctx, repository.ProductFilter{IncludeHidden: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)

	// The record survives for history.
	stored, err := catalog.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, stored.ID)
}

func TestCatalogAdjustStockDefaultsReason(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.NewStore()
	catalog := newCatalog(store)

	product, err := catalog.Create(ctx, service.ProductInput{
		Name: "Ceramic mug", Price: decimal.NewFromInt(14), Quantity: 5,
	})
	require.NoError(t, err)

	adjusted, err := catalog.AdjustStock(ctx, product.ID, 10, "", "recount")
	require.NoError(t, err)
	assert.Equal(t, 15, adjusted.Quantity)

	history, err := catalog.InventoryHistory(ctx, product.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ReasonManualAdjustment, history[0].Reason)
	assert.Equal(t, "recount", history[0].Note)
}
