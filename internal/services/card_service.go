package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/vitrina/internal/models"
	"github.com/example/vitrina/internal/repository"
	"github.com/example/vitrina/internal/utils"
)

// CardInput is the payload for registering a card.
type CardInput struct {
	Number string `json:"card_number" validate:"required"`
	Holder string `json:"card_holder" validate:"required,max=255"`
	Expire string `json:"expiry_date" validate:"required"`
}

// VerifyInput carries the SMS code for cards.verify.
type VerifyInput struct {
	Code string `json:"code" validate:"required,max=16"`
}

// CardService registers cards and drives their verification with Payme.
type CardService struct {
	cards   repository.CardRepository
	gateway CardGateway
	now     func() time.Time
}

func NewCardService(cards repository.CardRepository, gateway CardGateway) *CardService {
	return &CardService{cards: cards, gateway: gateway, now: time.Now}
}

// Register validates and stores a card. If tokenization fails the card is
// kept without a token; registering the same number again, or requesting a
// verification code, retries it.
func (s *CardService) Register(ctx context.Context, userID uint, in CardInput) (*models.StoredCard, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	number, err := utils.NormalizeCardNumber(in.Number)
	switch {
	case errors.Is(err, utils.ErrCardNumberFormat):
		fields["card_number"] = "Номер карты должен содержать 16 цифр"
	case errors.Is(err, utils.ErrCardNumberLuhn):
		fields["card_number"] = "Неверный номер карты"
	}

	holder := utils.SanitizeText(in.Holder)
	if utf8.RuneCountInString(holder) < 2 {
		fields["card_holder"] = "Имя владельца карты обязательно"
	}

	month, year, err := utils.ParseExpiry(in.Expire, s.now())
	switch {
	case errors.Is(err, utils.ErrExpiryFormat):
		fields["expiry_date"] = "Формат срока действия: MM/YY"
	case errors.Is(err, utils.ErrExpiryPast):
		fields["expiry_date"] = "Срок действия карты истек"
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	existing, err := s.cards.FindByNumber(ctx, userID, number)
	switch {
	case err == nil && existing.Registered():
		return nil, ErrCardExists
	case err == nil:
		existing.CardHolder = holder
		existing.ExpiryMonth = month
		existing.ExpiryYear = year
		if tokErr := s.tokenize(ctx, existing); tokErr != nil {
			log.Printf("[Cards] tokenization retry failed for user %d card %s: %v", userID, existing.Masked(), tokErr)
		}
		if err := s.cards.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("save card: %w", err)
		}
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("lookup card: %w", err)
	}

	card := &models.StoredCard{
		UserID:      userID,
		CardNumber:  number,
		CardHolder:  holder,
		ExpiryMonth: month,
		ExpiryYear:  year,
	}
	if err := s.tokenize(ctx, card); err != nil {
		log.Printf("[Cards] tokenization failed for user %d card %s: %v", userID, card.Masked(), err)
	}

	if err := s.cards.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("save card: %w", err)
	}
	return card, nil
}

// tokenize calls cards.create and sets the token on success. The card is not saved.
func (s *CardService) tokenize(ctx context.Context, card *models.StoredCard) error {
	token, err := s.gateway.CreateCard(ctx, card.CardNumber, card.Expire())
	if err != nil {
		return err
	}
	card.GatewayToken = &token
	return nil
}

func (s *CardService) userCard(ctx context.Context, userID, cardID uint) (*models.StoredCard, error) {
	card, err := s.cards.GetForUser(ctx, cardID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load card: %w", err)
	}
	return card, nil
}

func (s *CardService) registeredCard(ctx context.Context, userID, cardID uint) (*models.StoredCard, error) {
	card, err := s.userCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if !card.Registered() {
		return nil, ErrCardNotRegistered
	}
	return card, nil
}

// RequestVerificationCode sends an SMS code for the card, tokenizing it
// first if the earlier cards.create attempt failed.
func (s *CardService) RequestVerificationCode(ctx context.Context, userID, cardID uint) (*VerificationChallenge, error) {
	card, err := s.userCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if !card.Registered() {
		if err := s.tokenize(ctx, card); err != nil {
			log.Printf("[Cards] tokenization retry failed for user %d card %s: %v", userID, card.Masked(), err)
			return nil, err
		}
		if err := s.cards.Update(ctx, card); err != nil {
			return nil, fmt.Errorf("save card: %w", err)
		}
	}
	return s.gateway.RequestVerificationCode(ctx, *card.GatewayToken)
}

// Verify confirms the SMS code and marks the card usable for checkout.
func (s *CardService) Verify(ctx context.Context, userID, cardID uint, in VerifyInput) (*models.StoredCard, error) {
	in.Code = strings.TrimSpace(in.Code)
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	card, err := s.registeredCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	verified, err := s.gateway.VerifyCard(ctx, *card.GatewayToken, in.Code)
	if err != nil {
		return nil, err
	}

	token := verified.Token
	card.GatewayToken = &token
	card.Verified = true
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, fmt.Errorf("save card: %w", err)
	}
	return card, nil
}

// List returns the user's cards.
func (s *CardService) List(ctx context.Context, userID uint) ([]models.StoredCard, error) {
	return s.cards.ListForUser(ctx, userID)
}
