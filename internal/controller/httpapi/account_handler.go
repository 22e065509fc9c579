package httpapi

import (
	"github.com/Freeeeeet/peer_tutoring/internal/service"
	"github.com/gofiber/fiber/v2"
)

type accountHandler struct {
	accounts  Accounts
	analytics Analytics
}

func (h *accountHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	account, err := h.accounts.Register(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    account,
	})
}

func (h *accountHandler) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	token, account, err := h.accounts.Login(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"token": token, "user": account})
}

func (h *accountHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.accounts.Dashboard(c.UserContext(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dashboard)
}

func (h *accountHandler) UpdateProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	account, err := h.accounts.UpdateProfile(c.UserContext(), actorFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"user": account})
}

func (h *accountHandler) ApplyAsTutor(c *fiber.Ctx) error {
	var req service.ApplyTutorInput
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	account, err := h.accounts.ApplyAsTutor(c.UserContext(), actorFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "You are now a tutor",
		"user":    account,
	})
}

func (h *accountHandler) ListTutors(c *fiber.Ctx) error {
	tutors, err := h.accounts.ListTutors(c.UserContext(), actorFrom(c), c.Query("search"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"tutors": tutors})
}

func (h *accountHandler) MyStudents(c *fiber.Ctx) error {
	students, err := h.analytics.MyStudents(c.UserContext(), actorFrom(c), c.Query("search"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"students": students})
}
