package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/example/vitrina/internal/models"
	"github.com/example/vitrina/internal/services"
)

// CardHandler exposes card registration and verification.
type CardHandler struct {
	cards *services.CardService
}

// NewCardHandler constructs a CardHandler.
func NewCardHandler(cards *services.CardService) *CardHandler {
	return &CardHandler{cards: cards}
}

func cardID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid card id")
	}
	return uint(id), nil
}

// Create registers a card for the current user.
func (h *CardHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req services.CardInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	card, err := h.cards.Register(c.UserContext(), userID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": card.View()})
}

// List returns the current user's cards.
func (h *CardHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	cards, err := h.cards.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	views := make([]models.CardView, 0, len(cards))
	for _, card := range cards {
		views = append(views, card.View())
	}
	return c.JSON(fiber.Map{"success": true, "data": views})
}

// RequestCode sends an SMS verification code for the card.
func (h *CardHandler) RequestCode(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := cardID(c)
	if err != nil {
		return err
	}

	challenge, err := h.cards.RequestVerificationCode(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": challenge})
}

// Verify confirms the card with the SMS code.
func (h *CardHandler) Verify(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := cardID(c)
	if err != nil {
		return err
	}

	var req services.VerifyInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	card, err := h.cards.Verify(c.UserContext(), userID, id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": card.View()})
}
