// Package response renders the {success, message, data, error} envelope used
// by every JSON endpoint and maps service errors to status codes.
package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/mobcommerce-backend/internal/apperr"
)

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK writes a success envelope.
func OK(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an error envelope without going through the error handler.
func Fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(Envelope{Success: false, Error: msg})
}

const internalMessage = "Internal server error"

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindTooManyRequests:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is installed as fiber.Config.ErrorHandler. Handlers return
// errors and this is the only place they are turned into responses.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			msg := fe.Message
			if fe.Code == fiber.StatusNotFound {
				msg = "Route not found"
			}
			return Fail(c, fe.Code, msg)
		}

		var ae *apperr.Error
		if !errors.As(err, &ae) {
			ae = apperr.Internal(internalMessage, err)
		}

		status := StatusOf(ae.Kind)
		if status == fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		msg := ae.Message
		if msg == "" {
			msg = internalMessage
		}
		return Fail(c, status, msg)
	}
}

// NotFound answers requests that matched no route.
func NotFound(c *fiber.Ctx) error {
	return Fail(c, fiber.StatusNotFound, "Route not found")
}
