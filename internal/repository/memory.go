package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/vitrina/internal/models"
)

// MemoryStore keeps every entity in maps guarded by one lock.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   uint
	cards    map[uint]models.StoredCard
	products map[uint]models.Product
	orders   map[uint]models.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:   1,
		cards:    make(map[uint]models.StoredCard),
		products: make(map[uint]models.Product),
		orders:   make(map[uint]models.Order),
	}
}

type txKey struct{}

func isTx(ctx context.Context) bool {
	b, ok := ctx.Value(txKey{}).(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

func (m *MemoryStore) id() uint {
	id := m.nextID
	m.nextID++
	return id
}

func cloneCard(c models.StoredCard) models.StoredCard {
	if c.GatewayToken != nil {
		token := *c.GatewayToken
		c.GatewayToken = &token
	}
	return c
}

// MemoryCards implements CardRepository on a MemoryStore.
type MemoryCards struct{ store *MemoryStore }

func NewMemoryCards(store *MemoryStore) *MemoryCards { return &MemoryCards{store: store} }

var _ CardRepository = (*MemoryCards)(nil)

func (mc *MemoryCards) Create(ctx context.Context, c *models.StoredCard) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	c.ID = mc.store.id()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	mc.store.cards[c.ID] = cloneCard(*c)
	return nil
}

func (mc *MemoryCards) Update(ctx context.Context, c *models.StoredCard) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if _, ok := mc.store.cards[c.ID]; !ok {
		return ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	mc.store.cards[c.ID] = cloneCard(*c)
	return nil
}

func (mc *MemoryCards) GetForUser(ctx context.Context, id, userID uint) (*models.StoredCard, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.cards[id]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	cp := cloneCard(c)
	return &cp, nil
}

func (mc *MemoryCards) FindByNumber(ctx context.Context, userID uint, number string) (*models.StoredCard, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	for _, c := range mc.store.cards {
		if c.UserID == userID && c.CardNumber == number {
			cp := cloneCard(c)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mc *MemoryCards) ListForUser(ctx context.Context, userID uint) ([]models.StoredCard, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	out := make([]models.StoredCard, 0)
	for _, c := range mc.store.cards {
		if c.UserID == userID {
			out = append(out, cloneCard(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryProducts implements ProductRepository on a MemoryStore.
type MemoryProducts struct{ store *MemoryStore }

func NewMemoryProducts(store *MemoryStore) *MemoryProducts { return &MemoryProducts{store: store} }

var _ ProductRepository = (*MemoryProducts)(nil)

// Create seeds a product.
func (mp *MemoryProducts) Create(ctx context.Context, p *models.Product) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	p.ID = mp.store.id()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	mp.store.products[p.ID] = *p
	return nil
}

func (mp *MemoryProducts) GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := mp.store.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (mp *MemoryProducts) DecrementStock(ctx context.Context, id uint, qty int) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	p, ok := mp.store.products[id]
	if !ok || p.Stock < qty {
		return ErrInsufficientStock
	}
	p.Stock -= qty
	mp.store.products[id] = p
	return nil
}

// MemoryOrders implements OrderRepository on a MemoryStore.
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *models.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if o.OrderID == uuid.Nil {
		o.OrderID = uuid.New()
	}
	o.ID = mo.store.id()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	mo.store.orders[o.ID] = *o
	return nil
}

func (mo *MemoryOrders) GetForUser(ctx context.Context, orderID uuid.UUID, userID uint) (*models.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	for _, o := range mo.store.orders {
		if o.OrderID == orderID && o.UserID == userID {
			cp := o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mo *MemoryOrders) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Order, int64, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	all := make([]models.Order, 0)
	for _, o := range mo.store.orders {
		if o.UserID == userID {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return []models.Order{}, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

// MemoryTx holds the write lock for the whole transaction and restores the
// previous maps when fn fails.
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

var _ TxManager = (*MemoryTx)(nil)

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	s := tx.store
	nextID := s.nextID
	cards := make(map[uint]models.StoredCard, len(s.cards))
	for k, v := range s.cards {
		cards[k] = v
	}
	products := make(map[uint]models.Product, len(s.products))
	for k, v := range s.products {
		products[k] = v
	}
	orders := make(map[uint]models.Order, len(s.orders))
	for k, v := range s.orders {
		orders[k] = v
	}

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.nextID = nextID
		s.cards = cards
		s.products = products
		s.orders = orders
		return err
	}
	return nil
}
