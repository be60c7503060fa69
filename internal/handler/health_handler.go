package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Pinger is anything readiness can check
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	cache  Pinger
	logger *zap.Logger
}

// NewHealthHandler creates the health handler. cache may be nil when Redis is disabled.
func NewHealthHandler(store Pinger, cache Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		cache:  cache,
		logger: logger.With(zap.String("component", "http.health")),
	}
}

// Health returns basic health status
// GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "ok",
		"service":   "photobooth-server",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready returns readiness status
// GET /ready
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	checks := fiber.Map{
		"database": "ok",
		"cache":    "disabled",
	}

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("session store not ready", zap.Error(err))
		checks["database"] = "unavailable"
		status = fiber.StatusServiceUnavailable
	}

	// the cache is optional; a failing cache degrades resolution but does not block it
	if h.cache != nil {
		checks["cache"] = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.Warn("reel cache not ready", zap.Error(err))
			checks["cache"] = "degraded"
		}
	}

	state := "ready"
	if status != fiber.StatusOK {
		state = "not_ready"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": state,
		"checks": checks,
	})
}
