// Package repository persists cards, products and orders.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/vitrina/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock is returned by a conditional stock decrement that matched no row.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CardRepository stores payment cards.
type CardRepository interface {
	Create(ctx context.Context, card *models.StoredCard) error
	Update(ctx context.Context, card *models.StoredCard) error
	GetForUser(ctx context.Context, id, userID uint) (*models.StoredCard, error)
	FindByNumber(ctx context.Context, userID uint, number string) (*models.StoredCard, error)
	ListForUser(ctx context.Context, userID uint) ([]models.StoredCard, error)
}

// ProductRepository reads products and adjusts their stock.
type ProductRepository interface {
	GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	// DecrementStock subtracts qty only while stock >= qty.
	DecrementStock(ctx context.Context, id uint, qty int) error
}

// OrderRepository stores orders. Orders are never updated or deleted.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetForUser(ctx context.Context, orderID uuid.UUID, userID uint) (*models.Order, error)
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Order, int64, error)
}

// TxManager runs fn in a transaction. Repositories called with the ctx handed
// to fn take part in it; a non-nil error from fn rolls everything back.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
