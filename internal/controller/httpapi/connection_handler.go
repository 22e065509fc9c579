package httpapi

import (
	"github.com/Freeeeeet/peer_tutoring/internal/service"
	"github.com/gofiber/fiber/v2"
)

type connectionHandler struct {
	connections Connections
}

func (h *connectionHandler) Request(c *fiber.Ctx) error {
	var req service.RequestConnectionInput
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	conn, err := h.connections.Request(c.UserContext(), actorFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"connection": conn})
}

func (h *connectionHandler) Decide(c *fiber.Ctx) error {
	var req service.DecideConnectionInput
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	if _, err := h.connections.Decide(c.UserContext(), actorFrom(c), req); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *connectionHandler) List(c *fiber.Ctx) error {
	connections, err := h.connections.List(c.UserContext(), actorFrom(c), c.Query("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"connections": connections})
}
