package httpapi

import (
	"github.com/Freeeeeet/peer_tutoring/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type messageHandler struct {
	conversations Conversations
}

func (h *messageHandler) Inbox(c *fiber.Ctx) error {
	conversations, err := h.conversations.Inbox(c.UserContext(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"conversations": conversations})
}

func (h *messageHandler) Thread(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c)
	}

	messages, err := h.conversations.Thread(c.UserContext(), actorFrom(c), id, c.Query("type"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func (h *messageHandler) Send(c *fiber.Ctx) error {
	var req service.SendMessageInput
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	msg, err := h.conversations.Send(c.UserContext(), actorFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": msg})
}

func (h *messageHandler) MarkRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c)
	}

	updated, err := h.conversations.MarkRead(c.UserContext(), actorFrom(c), id, c.Query("type"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}
