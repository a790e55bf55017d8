package utils

import (
	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

func JSONSuccess(c *fiber.Ctx, message string, data any) error {
	return JSONStatus(c, fiber.StatusOK, message, data)
}

func JSONCreated(c *fiber.Ctx, message string, data any) error {
	return JSONStatus(c, fiber.StatusCreated, message, data)
}

func JSONStatus(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// JSONError writes the error envelope with the status mapped from err.
// Internal errors are logged and replaced by a generic message.
func JSONError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": PublicMessage(err),
		"data":    nil,
	})
}

// ErrorHandler is the fiber.Config ErrorHandler; it keeps framework errors
// such as unknown routes in the same envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return JSONError(c, err)
}
