package handler

import (
	"errors"

	"go-order-ws/internal/idempotency"
	"go-order-ws/internal/middleware"
	"go-order-ws/internal/model"
	"go-order-ws/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// actorFrom reads the identity RequireAuth stored in the request locals.
func actorFrom(c *fiber.Ctx) model.Actor {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	if id == "" {
		return model.SystemActor
	}
	name, _ := c.Locals(middleware.LocalUserName).(string)
	email, _ := c.Locals(middleware.LocalUserEmail).(string)
	return model.Actor{ID: id, Name: name, Email: email}
}

func badID(c *fiber.Ctx, label string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid " + label + " ID"})
}

// queryUUID returns nil when the query parameter is absent.
func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindInvalidRequest:
		return fiber.StatusBadRequest
	case apperror.KindConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// respondError writes a workflow error with its status code. Anything unclassified is
// logged and reported as a 500 without leaking its text.
func respondError(c *fiber.Ctx, err error) error {
	if errors.Is(err, idempotency.ErrInProgress) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "kind": string(apperror.KindConflict)})
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		zap.L().Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	body := fiber.Map{"error": appErr.Error(), "kind": string(appErr.Kind)}
	if appErr.Field != "" {
		body["field"] = appErr.Field
	}
	return c.Status(statusFor(appErr.Kind)).JSON(body)
}
