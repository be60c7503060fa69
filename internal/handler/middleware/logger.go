package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Beliver-247/photoBooth-server/pkg/metrics"
)

// LoggerMiddleware logs HTTP requests and counts them by method and status
func LoggerMiddleware(logger *zap.Logger) fiber.Handler {
	log := logger.With(zap.String("component", "http"))
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// the app error handler has not run yet
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		metrics.RequestsTotal.WithLabelValues(c.Method(), strconv.Itoa(status)).Inc()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if status >= fiber.StatusInternalServerError {
			log.Warn("request completed", fields...)
		} else {
			log.Info("request completed", fields...)
		}

		return err
	}
}
