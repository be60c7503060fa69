package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Beliver-247/photoBooth-server/internal/domain"
	"github.com/Beliver-247/photoBooth-server/internal/service"
	"github.com/Beliver-247/photoBooth-server/pkg/validator"
)

type SessionHandler struct {
	sessionService *service.SessionService
	validator      *validator.Validator
	logger         *zap.Logger
}

func NewSessionHandler(sessionService *service.SessionService, validator *validator.Validator, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		validator:      validator,
		logger:         logger.With(zap.String("component", "http.session")),
	}
}

type CreateSessionRequest struct {
	EventID *string `json:"eventId" validate:"omitempty,max=128"`
}

type AttachPhotosRequest struct {
	PhotoAssetIDs []string `json:"photoAssetIds" validate:"required,len=3,dive,required,max=255"`
}

type ShareRequest struct {
	Email *string `json:"email" validate:"required_without=Phone,omitempty,email"`
	Phone *string `json:"phone" validate:"required_without=Email,omitempty,e164"`
}

// SessionResponse is the public view of a session
type SessionResponse struct {
	ID            string       `json:"id"`
	EventID       *string      `json:"eventId,omitempty"`
	State         domain.State `json:"state"`
	PhotoAssetIDs []string     `json:"photoAssetIds"`
	ReelAssetID   string       `json:"reelAssetId,omitempty"`
	Slug          string       `json:"slug,omitempty"`
	DownloadURL   string       `json:"downloadUrl,omitempty"`
	FinalReelURL  string       `json:"finalReelUrl,omitempty"`
	CreatedAt     string       `json:"createdAt"`
	UpdatedAt     string       `json:"updatedAt"`
}

func toSessionResponse(s *domain.Session) SessionResponse {
	resp := SessionResponse{
		ID:            s.ID.String(),
		EventID:       s.EventID,
		State:         s.State(),
		PhotoAssetIDs: s.PhotoAssetIDs(),
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
	}
	if s.Reel != nil {
		resp.ReelAssetID = s.Reel.AssetID
		resp.Slug = s.Reel.Slug
		resp.DownloadURL = s.Reel.DownloadURL
		resp.FinalReelURL = s.Reel.URL
	}
	return resp
}

// Create starts a new session
// POST /api/sessions
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	if err := h.validator.Validate(req); err != nil {
		return invalidBody(c, err)
	}

	session, err := h.sessionService.Create(c.Context(), req.EventID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"sessionId": session.ID.String(),
	})
}

// Get returns a session
// GET /api/sessions/:id
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	session, err := h.sessionService.Get(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(toSessionResponse(session))
}

// UploadSignature signs a direct upload for this session
// GET /api/sessions/:id/upload-signature
func (h *SessionHandler) UploadSignature(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	sig, err := h.sessionService.UploadSignature(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(sig)
}

// AttachPhotos stores the three uploaded photo ids
// POST /api/sessions/:id/photos
func (h *SessionHandler) AttachPhotos(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req AttachPhotosRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return invalidBody(c, err)
	}

	session, err := h.sessionService.AttachPhotos(c.Context(), id, req.PhotoAssetIDs)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"session": toSessionResponse(session),
	})
}

// Complete generates the reel and issues the public link
// POST /api/sessions/:id/complete
func (h *SessionHandler) Complete(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.sessionService.Complete(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(result)
}

// Share sends the download link by email and/or SMS
// POST /api/sessions/:id/share
func (h *SessionHandler) Share(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req ShareRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return invalidBody(c, err)
	}

	results, err := h.sessionService.Notify(c.Context(), id, domain.Recipient{Email: req.Email, Phone: req.Phone})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"ok":      true,
		"results": results,
	})
}

// sessionID parses the :id route parameter. A malformed id cannot name an
// existing session, so it is reported as not found.
func sessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.NotFound("session.lookup", "session not found")
	}
	return id, nil
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
		"code":  domain.KindInvalidInput,
	})
}

// invalidBody reports validator failures with one entry per rejected field
func invalidBody(c *fiber.Ctx, err error) error {
	body := fiber.Map{
		"error": err.Error(),
		"code":  domain.KindInvalidInput,
	}
	var fields validator.Errors
	if errors.As(err, &fields) {
		body["fields"] = fields
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}
