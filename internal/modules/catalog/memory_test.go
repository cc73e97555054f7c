package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_StockCounters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	variantID := uuid.New()
	p := &Product{
		ID: uuid.New(), Name: "Hoodie", PricePaise: 99900, IsActive: true, StockQuantity: 3,
		HasVariants: true,
		Variants:    []*Variant{{ID: variantID, Name: "XL", PricePaise: 109900, IsActive: true, StockQuantity: 2}},
	}
	repo.Put(p)

	productKey := StockKey{ProductID: p.ID}
	variantKey := StockKey{ProductID: p.ID, VariantID: variantID}

	ok, err := repo.DecrementStock(ctx, variantKey, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, variantKey, 1)
	require.NoError(t, err)
	assert.False(t, ok, "decrement below zero must be refused")

	qty, err := repo.StockQuantity(ctx, variantKey)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)

	qty, err = repo.StockQuantity(ctx, productKey)
	require.NoError(t, err)
	assert.Equal(t, 3, qty, "product counter is independent of variant counters")

	require.NoError(t, repo.IncrementStock(ctx, variantKey, 2))
	qty, _ = repo.StockQuantity(ctx, variantKey)
	assert.Equal(t, 2, qty)

	_, err = repo.StockQuantity(ctx, StockKey{ProductID: p.ID, VariantID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	rate := 12
	p := &Product{ID: uuid.New(), Name: "Mug", PricePaise: 29900, StockQuantity: 5, GSTRate: &rate, HSNCode: "6912"}
	repo.Put(p)

	got, err := repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	got.StockQuantity = 100
	*got.GSTRate = 5

	again, _ := repo.GetProduct(ctx, p.ID)
	assert.Equal(t, 5, again.StockQuantity)

	info, err := repo.GetTaxInfo(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "6912", info.HSNCode)
	assert.Equal(t, 12, *info.Rate)
}
