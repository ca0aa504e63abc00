package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/example/vitrina/internal/events"
	"github.com/example/vitrina/internal/i18n"
	"github.com/example/vitrina/internal/metrics"
	"github.com/example/vitrina/internal/models"
	"github.com/example/vitrina/internal/repository"
	"github.com/example/vitrina/internal/utils"
)

var hundred = decimal.NewFromInt(100)

// OrderItemInput is one requested product line.
type OrderItemInput struct {
	ProductID uint `json:"product_id" validate:"gt=0"`
	Quantity  int  `json:"quantity" validate:"gte=1"`
}

// CreateOrderInput is the checkout request.
type CreateOrderInput struct {
	Items    []OrderItemInput `json:"products" validate:"required,min=1,dive"`
	CardID   uint             `json:"card_id" validate:"gt=0"`
	Address  string           `json:"address" validate:"max=500"`
	Phone    string           `json:"phone" validate:"max=32"`
	FullName string           `json:"full_name" validate:"max=255"`
	Locale   string           `json:"-"`
}

// OrderResult is returned by a checkout that reached the gateway.
type OrderResult struct {
	Success            bool                 `json:"success"`
	PaymentStatus      models.PaymentStatus `json:"payment_status"`
	PaymentStatusLabel string               `json:"payment_status_label"`
	OrderID            uuid.UUID            `json:"order_id"`
	TotalPrice         decimal.Decimal      `json:"total_price"`
}

// LineItem is a priced order line.
type LineItem struct {
	ProductID   uint
	Name        string
	Code        string
	PackageCode string
	Quantity    int
	BasePrice   decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	TotalMinor  int64
}

// Quote is the priced checkout: the gateway amount in minor units and the
// same amount in major units for persistence.
type Quote struct {
	Lines       []LineItem
	AmountMinor int64
	Total       decimal.Decimal
}

func toMinor(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// PriceLines computes the quote. Every product referenced by items must be
// present in products.
func PriceLines(items []OrderItemInput, products map[uint]models.Product, locale, fallback string) Quote {
	q := Quote{Lines: make([]LineItem, 0, len(items))}
	for _, item := range items {
		p := products[item.ProductID]
		qty := decimal.NewFromInt(int64(item.Quantity))
		unit := p.EffectivePrice()

		discount := decimal.Zero
		if p.HasDiscount() {
			discount = p.Price.Sub(unit).Mul(qty)
		}

		line := LineItem{
			ProductID:   p.ID,
			Name:        p.LocalizedName(locale, fallback),
			Code:        p.Code,
			PackageCode: p.PackageCode,
			Quantity:    item.Quantity,
			BasePrice:   p.Price,
			UnitPrice:   unit,
			Discount:    discount,
			TotalMinor:  toMinor(unit.Mul(qty)),
		}
		q.AmountMinor += line.TotalMinor
		q.Lines = append(q.Lines, line)
	}
	q.Total = decimal.New(q.AmountMinor, -2)
	return q
}

// ReceiptItems renders the quote as fiscal receipt lines.
func (q Quote) ReceiptItems() []ReceiptItem {
	items := make([]ReceiptItem, 0, len(q.Lines))
	for _, l := range q.Lines {
		items = append(items, ReceiptItem{
			Title:       l.Name,
			Price:       toMinor(l.UnitPrice),
			Count:       l.Quantity,
			Code:        l.Code,
			PackageCode: l.PackageCode,
			VatPercent:  0,
			Discount:    toMinor(l.Discount),
		})
	}
	return items
}

// Snapshot renders the quote as the order's product list.
func (q Quote) Snapshot() []models.OrderProduct {
	out := make([]models.OrderProduct, 0, len(q.Lines))
	for _, l := range q.Lines {
		out = append(out, models.OrderProduct{
			ID:       l.ProductID,
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    l.UnitPrice,
		})
	}
	return out
}

// mergeItems sums quantities of repeated products, keeping first-seen order.
func mergeItems(items []OrderItemInput) []OrderItemInput {
	index := make(map[uint]int, len(items))
	out := make([]OrderItemInput, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}

// Repositories bundles the stores OrderService needs.
type Repositories struct {
	Cards    repository.CardRepository
	Products repository.ProductRepository
	Orders   repository.OrderRepository
	Tx       repository.TxManager
}

// OrderService orchestrates checkout against Payme.
type OrderService struct {
	repos         Repositories
	gateway       ReceiptGateway
	notifier      OrderNotifier
	publisher     events.Publisher
	metrics       *metrics.Metrics
	defaultLocale string
	// background runs post-commit work; tests replace it to run inline.
	background func(func())
	pending    sync.WaitGroup
}

func NewOrderService(repos Repositories, gateway ReceiptGateway, notifier OrderNotifier, publisher events.Publisher, m *metrics.Metrics, defaultLocale string) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &OrderService{
		repos:         repos,
		gateway:       gateway,
		notifier:      notifier,
		publisher:     publisher,
		metrics:       m,
		defaultLocale: defaultLocale,
	}
	s.background = s.runTracked
	return s
}

func (s *OrderService) runTracked(fn func()) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Checkout] post-commit task panicked: %v", r)
			}
		}()
		fn()
	}()
}

// Drain waits for in-flight post-commit notifications until ctx is done.
func (s *OrderService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreateOrder validates the request, charges the card and records the order.
// Nothing is written unless both gateway calls succeed, and stock is only
// taken when the receipt is paid. If a concurrent checkout took the stock
// after payment, the order is kept flagged for reconciliation and the call
// still fails with InsufficientStockError.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, in CreateOrderInput) (*OrderResult, error) {
	result, err := s.createOrder(ctx, userID, in)
	switch {
	case err == nil && result.Success:
		s.metrics.ObserveCheckout("paid")
	case err == nil:
		s.metrics.ObserveCheckout("unpaid")
	case errors.Is(err, ErrOrderCreationFailed):
		s.metrics.ObserveCheckout("gateway_failed")
	default:
		s.metrics.ObserveCheckout("rejected")
	}
	return result, err
}

func (s *OrderService) createOrder(ctx context.Context, userID uint, in CreateOrderInput) (*OrderResult, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	items := mergeItems(in.Items)
	locale := i18n.Resolve(s.defaultLocale, in.Locale)

	card, err := s.repos.Cards.GetForUser(ctx, in.CardID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load card: %w", err)
	}
	if !card.Usable() {
		return nil, ErrCardNotFound
	}

	products, err := s.loadProducts(ctx, items)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		p := products[item.ProductID]
		if item.Quantity > p.Stock {
			return nil, &InsufficientStockError{ProductID: p.ID, Requested: item.Quantity, Available: p.Stock}
		}
	}

	quote := PriceLines(items, products, locale, s.defaultLocale)
	order := &models.Order{
		OrderID:    uuid.New(),
		UserID:     userID,
		Products:   datatypes.NewJSONType(quote.Snapshot()),
		TotalPrice: quote.Total,
		Address:    utils.SanitizeText(in.Address),
		Phone:      utils.SanitizeText(in.Phone),
		FullName:   utils.SanitizeText(in.FullName),
	}

	stockLost := false
	err = s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		receiptID, err := s.gateway.CreateReceipt(ctx, quote.AmountMinor, order.OrderID.String(), quote.ReceiptItems())
		if err != nil {
			log.Printf("[Checkout] receipts.create failed for order %s: %v", order.OrderID, err)
			return fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
		}

		status, err := s.gateway.PayReceipt(ctx, receiptID, *card.GatewayToken)
		if err == nil && !status.Valid() {
			err = &GatewayError{Method: "receipts.pay", Kind: ErrInvalidGatewayResponse, Message: status.Label("en")}
		}
		if err != nil {
			log.Printf("[Checkout] receipts.pay failed for order %s receipt %s: %v", order.OrderID, receiptID, err)
			return fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
		}

		order.ReceiptID = receiptID
		order.PaymentStatus = status
		if err := s.repos.Orders.Create(ctx, order); err != nil {
			log.Printf("[Checkout] saving order %s failed after receipt %s returned status %d: %v", order.OrderID, receiptID, status, err)
			return fmt.Errorf("save order: %w", err)
		}

		if !status.IsPaid() {
			return nil
		}
		for _, line := range quote.Lines {
			err := s.repos.Products.DecrementStock(ctx, line.ProductID, line.Quantity)
			if errors.Is(err, repository.ErrInsufficientStock) {
				stockLost = true
				log.Printf("[Checkout] stock for product %d ran out during payment, order %s receipt %s needs reconciliation", line.ProductID, order.OrderID, receiptID)
				return &InsufficientStockError{ProductID: line.ProductID, Requested: line.Quantity}
			}
			if err != nil {
				return fmt.Errorf("decrement stock for product %d: %w", line.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		if stockLost {
			s.recordForReconciliation(ctx, order)
		}
		return nil, err
	}
	if !order.PaymentStatus.IsTerminal() {
		log.Printf("[Checkout] order %s receipt %s is still in progress with state %d", order.OrderID, order.ReceiptID, order.PaymentStatus)
	}

	s.background(func() { s.afterCommit(order, quote) })

	return &OrderResult{
		Success:            order.PaymentStatus.IsPaid(),
		PaymentStatus:      order.PaymentStatus,
		PaymentStatusLabel: order.PaymentStatus.Label(locale),
		OrderID:            order.OrderID,
		TotalPrice:         order.TotalPrice,
	}, nil
}

// recordForReconciliation stores a charged order whose stock was taken by a
// concurrent checkout. No stock is decremented for it.
func (s *OrderService) recordForReconciliation(ctx context.Context, order *models.Order) {
	order.ID = 0
	order.NeedsReconciliation = true
	if err := s.repos.Orders.Create(ctx, order); err != nil {
		log.Printf("[Checkout] saving order %s for reconciliation failed, receipt %s status %d: %v", order.OrderID, order.ReceiptID, order.PaymentStatus, err)
	}
}

func (s *OrderService) loadProducts(ctx context.Context, items []OrderItemInput) (map[uint]models.Product, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	list, err := s.repos.Products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	products := make(map[uint]models.Product, len(list))
	for _, p := range list {
		products[p.ID] = p
	}
	var missing []uint
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &ProductNotFoundError{IDs: missing}
	}
	return products, nil
}

// afterCommit notifies the shop and publishes the order event. Failures are
// logged only; the order is already recorded.
func (s *OrderService) afterCommit(order *models.Order, quote Quote) {
	if s.notifier != nil {
		items := make([]OrderItemNotification, 0, len(quote.Lines))
		for _, l := range quote.Lines {
			items = append(items, OrderItemNotification{Name: l.Name, Quantity: l.Quantity, Price: l.UnitPrice})
		}
		err := s.notifier.NotifyNewOrder(OrderNotification{
			OrderID:     order.OrderID.String(),
			Items:       items,
			TotalAmount: order.TotalPrice,
			FullName:    order.FullName,
			Phone:       order.Phone,
			Address:     order.Address,
			Paid:        order.PaymentStatus.IsPaid(),
			StatusLabel: order.PaymentStatus.Label("ru"),
		})
		if err != nil {
			log.Printf("[Checkout] telegram notification for order %s failed: %v", order.OrderID, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.publisher.PublishOrderCreated(ctx, events.OrderEvent{
		OrderID:       order.OrderID.String(),
		UserID:        order.UserID,
		TotalPrice:    order.TotalPrice.StringFixed(2),
		PaymentStatus: int(order.PaymentStatus),
		Paid:          order.PaymentStatus.IsPaid(),
		CreatedAt:     order.CreatedAt,
	})
	if err != nil {
		log.Printf("[Checkout] publishing event for order %s failed: %v", order.OrderID, err)
	}
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID uint, limit, offset int) ([]models.Order, int64, error) {
	return s.repos.Orders.ListForUser(ctx, userID, limit, offset)
}

// GetOrder returns one of the user's orders by its public id.
func (s *OrderService) GetOrder(ctx context.Context, userID uint, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repos.Orders.GetForUser(ctx, orderID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return order, err
}
