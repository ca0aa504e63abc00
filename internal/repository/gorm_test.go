package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/vitrina/internal/i18n"
	"github.com/example/vitrina/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.StoredCard{}, &models.Product{}, &models.Order{}))
	return db
}

func TestGormProducts_DecrementStock(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	products := NewGormProducts(db)

	p := models.Product{
		Name:          datatypes.NewJSONType(i18n.Text{"ru": "Духи"}),
		Price:         decimal.RequireFromString("50.00"),
		DiscountPrice: decimal.NewNullDecimal(decimal.RequireFromString("40.00")),
		Stock:         5,
	}
	require.NoError(t, db.Create(&p).Error)

	require.NoError(t, products.DecrementStock(ctx, p.ID, 5))
	assert.ErrorIs(t, products.DecrementStock(ctx, p.ID, 1), ErrInsufficientStock)

	got, err := products.GetByIDs(ctx, []uint{p.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Stock)
	assert.True(t, got[0].EffectivePrice().Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "Духи", got[0].LocalizedName("en", "ru"))
}

func TestGormTx_RollsBackOrderAndStock(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	tx := NewGormTx(db)
	products := NewGormProducts(db)
	orders := NewGormOrders(db)

	p := models.Product{Price: decimal.NewFromInt(100), Stock: 2}
	require.NoError(t, db.Create(&p).Error)

	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		order := models.Order{
			UserID:        1,
			Products:      datatypes.NewJSONType([]models.OrderProduct{{ID: p.ID, Name: "A", Quantity: 3, Price: p.Price}}),
			TotalPrice:    decimal.NewFromInt(300),
			PaymentStatus: models.PaymentPaid,
		}
		if err := orders.Create(ctx, &order); err != nil {
			return err
		}
		return products.DecrementStock(ctx, p.ID, 3)
	})
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	_, total, err := orders.ListForUser(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestGormOrders_CreateAndFetch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	orders := NewGormOrders(db)

	order := models.Order{
		UserID:        3,
		Products:      datatypes.NewJSONType([]models.OrderProduct{{ID: 1, Name: "A", Quantity: 2, Price: decimal.NewFromInt(100)}}),
		TotalPrice:    decimal.RequireFromString("240.00"),
		PaymentStatus: models.PaymentCancelled,
		ReceiptID:     "rcpt-1",
	}
	require.NoError(t, orders.Create(ctx, &order))
	require.NotZero(t, order.ID)

	got, err := orders.GetForUser(ctx, order.OrderID, 3)
	require.NoError(t, err)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(240)))
	assert.Equal(t, models.PaymentCancelled, got.PaymentStatus)
	require.Len(t, got.Products.Data(), 1)
	assert.Equal(t, 2, got.Products.Data()[0].Quantity)

	_, err = orders.GetForUser(ctx, order.OrderID, 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormCards_UpdateToken(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	cards := NewGormCards(db)

	card := models.StoredCard{UserID: 1, CardNumber: "8600123412345678", CardHolder: "Ali Valiev", ExpiryMonth: 3, ExpiryYear: 2030}
	require.NoError(t, cards.Create(ctx, &card))

	token := "tok"
	card.GatewayToken = &token
	card.Verified = true
	card.ExpiryMonth = 4
	card.ExpiryYear = 2031
	require.NoError(t, cards.Update(ctx, &card))

	got, err := cards.GetForUser(ctx, card.ID, 1)
	require.NoError(t, err)
	assert.True(t, got.Usable())
	assert.Equal(t, "0431", got.Expire())

	list, err := cards.ListForUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
