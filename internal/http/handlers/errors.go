package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"smartdeals/internal/domain"
	applog "smartdeals/internal/log"
)

const genericMessage = "Something went wrong. Please try again."

// ErrorHandler renders every error as {"message": ...}. Domain errors keep
// their text; anything unclassified becomes a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	msg := err.Error()
	switch {
	case status >= fiber.StatusInternalServerError:
		applog.Error(c, "server.error", err, nil)
		msg = genericMessage
	case status == fiber.StatusForbidden:
		applog.Security(c, "access.denied", map[string]any{"reason": msg})
	}
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// parseBody decodes a JSON body; malformed input is a bad request.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body"})
		return fiber.NewError(fiber.StatusBadRequest, "request body must be valid JSON")
	}
	return nil
}
