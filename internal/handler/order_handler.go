package handler

import (
	"context"

	"go-order-ws/internal/idempotency"
	"go-order-ws/internal/model"
	"go-order-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OrderHandler struct {
	service service.OrderService
	idem    idempotency.Store
}

// NewOrderHandler wires the order endpoints. idem may be nil, in which case
// Idempotency-Key headers are ignored.
func NewOrderHandler(s service.OrderService, idem idempotency.Store) *OrderHandler {
	return &OrderHandler{service: s, idem: idem}
}

// CreateOrder places a new order
// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req service.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	actor := actorFrom(c)

	var created *model.Order
	orderID, replayed, err := idempotency.Guard(c.UserContext(), h.idem, actor.ID, c.Get(idempotency.Header),
		func(ctx context.Context) (string, error) {
			order, err := h.service.CreateOrder(ctx, &req, actor)
			if err != nil {
				return "", err
			}
			created = order
			return order.ID.String(), nil
		})
	if err != nil {
		return respondError(c, err)
	}

	if replayed {
		id, err := uuid.Parse(orderID)
		if err != nil {
			return respondError(c, err)
		}
		order, err := h.service.GetOrder(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		c.Set("Idempotent-Replayed", "true")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Order already created", "data": order})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Order created", "data": created})
}

// UpdateOrder applies a partial update
// PATCH /api/v1/orders/:id
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "order")
	}
	var req service.UpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	order, err := h.service.UpdateOrder(c.UserContext(), id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order updated", "data": order})
}

// CancelOrder POST /api/v1/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "order")
	}
	order, err := h.service.CancelOrder(c.UserContext(), id, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order cancelled", "data": order})
}

// DeleteOrder DELETE /api/v1/orders/:id
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "order")
	}
	if err := h.service.DeleteOrder(c.UserContext(), id, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order deleted"})
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "order")
	}
	order, err := h.service.GetOrder(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// GetOrders lists orders, optionally filtered by customer_id or enterprise_id.
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	customerID, ok := queryUUID(c, "customer_id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}
	enterpriseID, ok := queryUUID(c, "enterprise_id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid enterprise ID"})
	}

	var (
		orders []model.Order
		err    error
	)
	switch {
	case customerID != nil:
		orders, err = h.service.ListOrdersByCustomer(c.UserContext(), *customerID)
	case enterpriseID != nil:
		orders, err = h.service.ListOrdersByEnterprise(c.UserContext(), *enterpriseID)
	default:
		orders, err = h.service.ListOrders(c.UserContext())
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}
