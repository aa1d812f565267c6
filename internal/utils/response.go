package utils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/zeldalab/zelda/internal/types"
)

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}

// RegistryErrorResponse maps a registry error onto the response envelope:
// ValidationError 400, NotFound 404, DuplicateKeyError 409, StoreError 502,
// anything else 500.
func RegistryErrorResponse(c *fiber.Ctx, err error) error {
	var validationErr *types.ValidationError
	var duplicateErr *types.DuplicateKeyError
	var storeErr *types.StoreError

	switch {
	case errors.As(err, &validationErr):
		return ErrorResponse(c, validationErr.Message, fiber.StatusBadRequest, "validation")
	case errors.Is(err, types.ErrNotFound):
		return NotFoundResponse(c, err.Error())
	case errors.As(err, &duplicateErr):
		return ErrorResponse(c, duplicateErr.Error(), fiber.StatusConflict, "duplicate")
	case errors.As(err, &storeErr):
		return ErrorResponse(c, storeErr.Error(), fiber.StatusBadGateway, "store")
	}
	return ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "unknown")
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
}
