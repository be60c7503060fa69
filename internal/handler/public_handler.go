package handler

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Beliver-247/photoBooth-server/internal/domain"
	"github.com/Beliver-247/photoBooth-server/internal/service"
)

var reelPage = template.Must(template.New("reel").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Your PhotoBooth Reel</title>
  <style>
    body { margin: 0; min-height: 100vh; display: flex; align-items: center; justify-content: center;
           font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
           background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); }
    .card { background: #fff; border-radius: 16px; padding: 24px; text-align: center;
            box-shadow: 0 20px 40px rgba(0,0,0,0.2); max-width: 480px; width: 90%; }
    img { width: 100%; height: auto; border-radius: 8px; }
    a.button { display: inline-block; margin-top: 16px; padding: 12px 28px; border-radius: 999px;
               background: #764ba2; color: #fff; text-decoration: none; font-weight: 600; }
  </style>
</head>
<body>
  <div class="card">
    <h1>Your PhotoBooth Reel</h1>
    <img src="{{.URL}}" alt="PhotoBooth reel">
    <a class="button" href="{{.URL}}" download="photobooth-{{.Slug}}.jpg">Download Photos</a>
  </div>
</body>
</html>
`))

var notFoundPage = template.Must(template.New("missing").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Photo not found</title></head>
<body><h1>Photo not found</h1></body>
</html>
`))

type PublicHandler struct {
	sessionService *service.SessionService
	logger         *zap.Logger
}

func NewPublicHandler(sessionService *service.SessionService, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{
		sessionService: sessionService,
		logger:         logger.With(zap.String("component", "http.public")),
	}
}

// Page renders the shareable download page
// GET /r/:slug
func (h *PublicHandler) Page(c *fiber.Ctx) error {
	slug := c.Params("slug")

	reel, err := h.sessionService.ResolvePublic(c.Context(), slug)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return h.render(c, fiber.StatusNotFound, notFoundPage, nil)
		}
		h.logger.Error("failed to resolve reel", zap.String("slug", slug), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong")
	}

	return h.render(c, fiber.StatusOK, reelPage, struct {
		URL  string
		Slug string
	}{URL: reel.URL, Slug: slug})
}

// Reel resolves a slug to its reel as JSON
// GET /api/reels/:slug
func (h *PublicHandler) Reel(c *fiber.Ctx) error {
	reel, err := h.sessionService.ResolvePublic(c.Context(), c.Params("slug"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(reel)
}

func (h *PublicHandler) render(c *fiber.Ctx, status int, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		h.logger.Error("failed to render page", zap.String("template", tmpl.Name()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
