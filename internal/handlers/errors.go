package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/vitrina/internal/middleware"
	"github.com/example/vitrina/internal/services"
)

var statusByKind = map[string]int{
	services.InfoValidation.Name:             fiber.StatusBadRequest,
	services.InfoNotFound.Name:               fiber.StatusNotFound,
	services.InfoCardNotFound.Name:           fiber.StatusNotFound,
	services.InfoProductNotFound.Name:        fiber.StatusNotFound,
	services.InfoCardExists.Name:             fiber.StatusConflict,
	services.InfoCardNotRegistered.Name:      fiber.StatusConflict,
	services.InfoInsufficientStock.Name:      fiber.StatusConflict,
	services.InfoVerificationRejected.Name:   fiber.StatusUnprocessableEntity,
	services.InfoGatewayUnavailable.Name:     fiber.StatusBadGateway,
	services.InfoInvalidGatewayResponse.Name: fiber.StatusBadGateway,
	services.InfoOrderCreationFailed.Name:    fiber.StatusBadGateway,
}

// ErrorHandler renders every error returned by a handler as
// {"success": false, "error": {...}}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"success": false,
			"error":   fiber.Map{"kind": "http_error", "message": fe.Message},
		})
	}

	info, ok := services.Classify(err)
	if !ok {
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   fiber.Map{"kind": "internal_error", "message": "internal server error"},
		})
	}

	body := fiber.Map{
		"kind":    info.Name,
		"message": info.Message.Get(middleware.GetLocale(c), "en"),
	}

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	var pnf *services.ProductNotFoundError
	if errors.As(err, &pnf) {
		body["product_ids"] = pnf.IDs
	}
	var stock *services.InsufficientStockError
	if errors.As(err, &stock) {
		body["product_id"] = stock.ProductID
	}

	return c.Status(statusByKind[info.Name]).JSON(fiber.Map{"success": false, "error": body})
}

// parseBody decodes the request body into dst.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

func currentUser(c *fiber.Ctx) (uint, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return userID, nil
}
