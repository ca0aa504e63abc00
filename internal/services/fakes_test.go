package services

import (
	"context"
	"sync"

	"github.com/example/vitrina/internal/models"
	"github.com/example/vitrina/internal/repository"
)

type fakeGateway struct {
	mu sync.Mutex

	createCardToken string
	createCardErr   error
	verifyToken     string
	verifyErr       error
	challenge       *VerificationChallenge

	receiptID  string
	createErr  error
	payStatus  models.PaymentStatus
	payErr     error
	amounts    []int64
	items      [][]ReceiptItem
	payTokens  []string
	orderIDs   []string
	cardCalls  int
	verifyCode []string

	createReceiptCalls int
	payReceiptCalls    int
}

func (g *fakeGateway) CreateCard(_ context.Context, number, expire string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cardCalls++
	if g.createCardErr != nil {
		return "", g.createCardErr
	}
	return g.createCardToken, nil
}

func (g *fakeGateway) RequestVerificationCode(_ context.Context, token string) (*VerificationChallenge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cardCalls++
	return g.challenge, nil
}

func (g *fakeGateway) VerifyCard(_ context.Context, token, code string) (*VerifiedCard, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cardCalls++
	g.verifyCode = append(g.verifyCode, code)
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return &VerifiedCard{Token: g.verifyToken, Verify: true}, nil
}

func (g *fakeGateway) CreateReceipt(_ context.Context, amount int64, orderID string, items []ReceiptItem) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createReceiptCalls++
	g.amounts = append(g.amounts, amount)
	g.items = append(g.items, items)
	g.orderIDs = append(g.orderIDs, orderID)
	if g.createErr != nil {
		return "", g.createErr
	}
	return g.receiptID, nil
}

func (g *fakeGateway) PayReceipt(_ context.Context, receiptID, token string) (models.PaymentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payReceiptCalls++
	g.payTokens = append(g.payTokens, token)
	if g.payErr != nil {
		return 0, g.payErr
	}
	return g.payStatus, nil
}

type fakeNotifier struct {
	sent chan OrderNotification
}

func (n *fakeNotifier) NotifyNewOrder(order OrderNotification) error {
	n.sent <- order
	return nil
}

// soldOutProducts simulates stock taken by a concurrent checkout between the
// pre-check and the decrement.
type soldOutProducts struct {
	repository.ProductRepository
}

func (soldOutProducts) DecrementStock(context.Context, uint, int) error {
	return repository.ErrInsufficientStock
}
