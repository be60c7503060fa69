package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Beliver-247/photoBooth-server/internal/domain"
)

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidInput:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindPreconditionFailed, domain.KindConflictExhausted:
		return fiber.StatusConflict
	case domain.KindReelGenerationFailed:
		return fiber.StatusBadGateway
	case domain.KindUpstreamUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes a stable error body. Causes are logged, never returned.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	kind := domain.KindOf(err)
	status := StatusFor(kind)

	message := "internal server error"
	var derr *domain.Error
	if errors.As(err, &derr) && derr.Msg != "" && kind != domain.KindInternal {
		message = derr.Msg
	} else if kind != domain.KindInternal {
		message = string(kind)
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  kind,
	})
}

// ErrorHandler handles errors returned by Fiber itself (unknown routes, bad methods)
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		} else {
			logger.Error("unhandled error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}
