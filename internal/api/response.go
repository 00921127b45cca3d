package api

import (
	"github.com/gofiber/fiber/v2"
)

// Error codes returned to the presentation layer. The server classifies
// failures precisely enough for callers to choose their own wording.
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConfigMissing = "CONFIG_MISSING"
	ErrCodeDecryptFailed = "DECRYPT_FAILED"
	ErrCodeBadRequest    = "BAD_REQUEST"
)

// RespondSuccess sends a successful response with data.
func RespondSuccess(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// RespondError sends an error response with a custom status code.
func RespondError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}
