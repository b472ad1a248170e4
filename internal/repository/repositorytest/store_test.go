package repositorytest_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/repository"
	"github.com/boutique-commerce/backoffice/internal/repository/repositorytest"
)

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.NewStore()

	sentinel := domain.NewNotFoundError("product", uuid.New())
	err := store.InTx(ctx, func(tx repository.Store) error {
		p := domain.NewProduct("Linen shirt", "", decimal.NewFromInt(50), 10)
		require.NoError(t, tx.Products().Create(ctx, p))
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	list, listErr := store.Products().List(ctx, repository.ProductFilter{IncludeHidden: true})
	require.NoError(t, listErr)
	assert.Empty(t, list)
}

// A unique violation poisons the rest of the transaction, the way it does
// against PostgreSQL: later statements fail and a commit rolls back.
func TestInTxAbortsAfterConstraintViolation(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.NewStore()

	first := domain.NewProduct("Linen shirt", "", decimal.NewFromInt(50), 10)
	first.SKU = "SKU-1"
	store.SeedProduct(*first)

	err := store.InTx(ctx, func(tx repository.Store) error {
		kept := domain.NewProduct("Leather belt", "", decimal.NewFromInt(30), 5)
		kept.SKU = "SKU-2"
		require.NoError(t, tx.Products().Create(ctx, kept))

		clash := domain.NewProduct("Other shirt", "", decimal.NewFromInt(60), 3)
		clash.SKU = "SKU-1"
		var dup *domain.DuplicateError
		require.ErrorAs(t, tx.Products().Create(ctx, clash), &dup)

		// Every statement after the violation fails until the transaction
		// ends, even ones that would otherwise succeed.
		var persist *domain.PersistenceError
		_, getErr := tx.Products().GetByID(ctx, first.ID)
		require.ErrorAs(t, getErr, &persist)
		return nil
	})
	var persist *domain.PersistenceError
	require.ErrorAs(t, err, &persist)

	// Commit of the aborted transaction rolled back the first insert too.
	list, listErr := store.Products().List(ctx, repository.ProductFilter{IncludeHidden: true})
	require.NoError(t, listErr)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
}
