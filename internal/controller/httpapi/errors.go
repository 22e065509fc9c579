package httpapi

import (
	"errors"

	"github.com/Freeeeeet/peer_tutoring/internal/service"
	"github.com/gofiber/fiber/v2"
)

var statusByKind = map[service.ErrorKind]int{
	service.KindBadRequest:   fiber.StatusBadRequest,
	service.KindUnauthorized: fiber.StatusUnauthorized,
	service.KindNotFound:     fiber.StatusNotFound,
	service.KindConflict:     fiber.StatusConflict,
	service.KindInternal:     fiber.StatusInternalServerError,
}

// writeError переводит ошибку сервиса в HTTP ответ без внутренних деталей
func writeError(c *fiber.Ctx, err error) error {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	status, ok := statusByKind[svcErr.Kind]
	if !ok || svcErr.Kind == service.KindInternal {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	body := fiber.Map{"error": svcErr.Message}
	if len(svcErr.Fields) > 0 {
		body["errors"] = svcErr.Fields
	}
	return c.Status(status).JSON(body)
}

func badJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
}

func badID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
}

// errorHandler отвечает JSON-ом на ошибки самого fiber (404 маршрута, 405 и т.п.)
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
