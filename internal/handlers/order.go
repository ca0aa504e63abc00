package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/vitrina/internal/middleware"
	"github.com/example/vitrina/internal/services"
	"github.com/example/vitrina/internal/utils"
)

// OrderHandler exposes checkout and order history.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create runs checkout. Paid orders answer 201; orders recorded with any
// other gateway status answer 202.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req services.CreateOrderInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.Locale = middleware.GetLocale(c)

	result, err := h.orders.CreateOrder(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if !result.Success {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(result)
}

// List returns the current user's orders.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	pg := utils.ParsePagination(c)

	orders, total, err := h.orders.ListOrders(c.UserContext(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

// Get returns one order by its public order_id.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	orderID, err := uuid.Parse(c.Params("order_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	order, err := h.orders.GetOrder(c.UserContext(), userID, orderID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}
