package httpapi

import (
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type bookingHandler struct {
	bookings Bookings
}

func (h *bookingHandler) List(c *fiber.Ctx) error {
	bookings, err := h.bookings.List(c.UserContext(), actorFrom(c), c.Query("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"bookings": bookings})
}

func (h *bookingHandler) Create(c *fiber.Ctx) error {
	var req service.CreateBookingInput
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	bookings, err := h.bookings.Create(c.UserContext(), actorFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}

	message := "Booking request sent"
	if len(req.StudentIDs) > 0 {
		message = "Sessions scheduled"
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  message,
		"bookings": bookings,
	})
}

func (h *bookingHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c)
	}

	var req service.UpdateBookingStatusInput
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	booking, err := h.bookings.UpdateStatus(c.UserContext(), actorFrom(c), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"booking": booking})
}

// WeekImage ?start= принимает дату (2006-01-02) или RFC3339; без параметра текущая неделя
func (h *bookingHandler) WeekImage(c *fiber.Ctx) error {
	var weekOf time.Time
	if raw := c.Query("start"); raw != "" {
		parsed, err := parseWeekStart(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start date"})
		}
		weekOf = parsed
	}

	img, err := h.bookings.WeekImage(c.UserContext(), actorFrom(c), weekOf)
	if err != nil {
		return writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(img)
}

func parseWeekStart(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
