package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vitrina/internal/models"
)

func TestMemoryCards_OwnershipAndClone(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cards := NewMemoryCards(store)

	token := "tok-1"
	card := models.StoredCard{UserID: 7, CardNumber: "8600123412345678", GatewayToken: &token}
	require.NoError(t, cards.Create(ctx, &card))
	require.NotZero(t, card.ID)

	_, err := cards.GetForUser(ctx, card.ID, 8)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := cards.GetForUser(ctx, card.ID, 7)
	require.NoError(t, err)
	*got.GatewayToken = "mutated"

	again, err := cards.GetForUser(ctx, card.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", *again.GatewayToken)

	found, err := cards.FindByNumber(ctx, 7, "8600123412345678")
	require.NoError(t, err)
	assert.Equal(t, card.ID, found.ID)

	_, err = cards.FindByNumber(ctx, 8, "8600123412345678")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProducts_DecrementStockIsConditional(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	products := NewMemoryProducts(store)

	p := models.Product{Price: decimal.NewFromInt(10), Stock: 5}
	require.NoError(t, products.Create(ctx, &p))

	require.NoError(t, products.DecrementStock(ctx, p.ID, 3))
	assert.ErrorIs(t, products.DecrementStock(ctx, p.ID, 3), ErrInsufficientStock)
	require.NoError(t, products.DecrementStock(ctx, p.ID, 2))

	got, err := products.GetByIDs(ctx, []uint{p.ID, 999})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Stock)
}

func TestMemoryTx_RollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	products := NewMemoryProducts(store)
	orders := NewMemoryOrders(store)

	p := models.Product{Price: decimal.NewFromInt(10), Stock: 5}
	require.NoError(t, products.Create(ctx, &p))

	boom := errors.New("boom")
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := orders.Create(ctx, &models.Order{UserID: 1}); err != nil {
			return err
		}
		if err := products.DecrementStock(ctx, p.ID, 2); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, total, err := orders.ListForUser(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)

	got, err := products.GetByIDs(ctx, []uint{p.ID})
	require.NoError(t, err)
	assert.Equal(t, 5, got[0].Stock)
}

func TestMemoryOrders_ListNewestFirstWithPaging(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orders := NewMemoryOrders(store)

	var last models.Order
	for i := 0; i < 3; i++ {
		last = models.Order{UserID: 1}
		require.NoError(t, orders.Create(ctx, &last))
	}
	require.NoError(t, orders.Create(ctx, &models.Order{UserID: 2}))

	page, total, err := orders.ListForUser(ctx, 1, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, last.OrderID, page[0].OrderID)

	page, _, err = orders.ListForUser(ctx, 1, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	_, err = orders.GetForUser(ctx, last.OrderID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = orders.GetForUser(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
