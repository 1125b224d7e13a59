package handler

import (
	"go-order-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type EnterpriseHandler struct {
	service service.EnterpriseService
}

func NewEnterpriseHandler(s service.EnterpriseService) *EnterpriseHandler {
	return &EnterpriseHandler{service: s}
}

func (h *EnterpriseHandler) CreateEnterprise(c *fiber.Ctx) error {
	var req service.CreateEnterpriseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	enterprise, err := h.service.CreateEnterprise(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Enterprise created", "data": enterprise})
}

func (h *EnterpriseHandler) GetEnterprises(c *fiber.Ctx) error {
	enterprises, err := h.service.GetEnterprises(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(enterprises)
}

func (h *EnterpriseHandler) GetEnterprise(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "enterprise")
	}
	enterprise, err := h.service.GetEnterprise(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(enterprise)
}
