package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/vitrina/internal/models"
)

type gormTxKey struct{}

// conn returns the transaction carried by ctx, or db bound to ctx.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// GormTx implements TxManager with gorm transactions.
type GormTx struct{ db *gorm.DB }

func NewGormTx(db *gorm.DB) *GormTx { return &GormTx{db: db} }

var _ TxManager = (*GormTx)(nil)

func (t *GormTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, gormTxKey{}, tx))
	})
}

// GormCards implements CardRepository.
type GormCards struct{ db *gorm.DB }

func NewGormCards(db *gorm.DB) *GormCards { return &GormCards{db: db} }

var _ CardRepository = (*GormCards)(nil)

func (r *GormCards) Create(ctx context.Context, card *models.StoredCard) error {
	return conn(ctx, r.db).Create(card).Error
}

func (r *GormCards) Update(ctx context.Context, card *models.StoredCard) error {
	res := conn(ctx, r.db).Model(card).Select("gateway_token", "verified", "card_holder", "expiry_month", "expiry_year").Updates(card)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormCards) GetForUser(ctx context.Context, id, userID uint) (*models.StoredCard, error) {
	var card models.StoredCard
	if err := conn(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).First(&card).Error; err != nil {
		return nil, notFound(err)
	}
	return &card, nil
}

func (r *GormCards) FindByNumber(ctx context.Context, userID uint, number string) (*models.StoredCard, error) {
	var card models.StoredCard
	if err := conn(ctx, r.db).Where("user_id = ? AND card_number = ?", userID, number).First(&card).Error; err != nil {
		return nil, notFound(err)
	}
	return &card, nil
}

func (r *GormCards) ListForUser(ctx context.Context, userID uint) ([]models.StoredCard, error) {
	var cards []models.StoredCard
	if err := conn(ctx, r.db).Where("user_id = ?", userID).Order("id ASC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// GormProducts implements ProductRepository.
type GormProducts struct{ db *gorm.DB }

func NewGormProducts(db *gorm.DB) *GormProducts { return &GormProducts{db: db} }

var _ ProductRepository = (*GormProducts)(nil)

func (r *GormProducts) GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProducts) DecrementStock(ctx context.Context, id uint, qty int) error {
	res := conn(ctx, r.db).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// GormOrders implements OrderRepository.
type GormOrders struct{ db *gorm.DB }

func NewGormOrders(db *gorm.DB) *GormOrders { return &GormOrders{db: db} }

var _ OrderRepository = (*GormOrders)(nil)

func (r *GormOrders) Create(ctx context.Context, order *models.Order) error {
	return conn(ctx, r.db).Create(order).Error
}

func (r *GormOrders) GetForUser(ctx context.Context, orderID uuid.UUID, userID uint) (*models.Order, error) {
	var order models.Order
	if err := conn(ctx, r.db).Where("order_id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *GormOrders) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Order, int64, error) {
	var (
		orders []models.Order
		total  int64
	)
	query := conn(ctx, r.db).Model(&models.Order{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
