package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(
	app *fiber.App,
	sessionHandler *SessionHandler,
	publicHandler *PublicHandler,
	healthHandler *HealthHandler,
) {
	// Health checks
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Public download page
	app.Get("/r/:slug", publicHandler.Page)

	api := app.Group("/api")

	// Session lifecycle (kiosk)
	sessions := api.Group("/sessions")
	sessions.Post("/", sessionHandler.Create)
	sessions.Get("/:id", sessionHandler.Get)
	sessions.Get("/:id/upload-signature", sessionHandler.UploadSignature)
	sessions.Post("/:id/photos", sessionHandler.AttachPhotos)
	sessions.Post("/:id/complete", sessionHandler.Complete)
	sessions.Post("/:id/share", sessionHandler.Share)

	api.Get("/reels/:slug", publicHandler.Reel)
}
