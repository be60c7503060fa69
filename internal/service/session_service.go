package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Beliver-247/photoBooth-server/internal/domain"
	"github.com/Beliver-247/photoBooth-server/internal/repository"
	"github.com/Beliver-247/photoBooth-server/pkg/assetstore"
	"github.com/Beliver-247/photoBooth-server/pkg/metrics"
	"github.com/Beliver-247/photoBooth-server/pkg/reelcache"
	"github.com/Beliver-247/photoBooth-server/pkg/slug"
)

// Notifier delivers a download link over one channel.
type Notifier interface {
	SendDownloadLink(ctx context.Context, to, downloadURL string) error
}

// ReelCache short-circuits public slug resolution.
type ReelCache interface {
	Get(ctx context.Context, slug string) (*reelcache.Entry, error)
	Set(ctx context.Context, slug string, entry reelcache.Entry) error
	Delete(ctx context.Context, slug string) error
}

// Outcome is the result of one notification channel.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// SessionConfig configures the session lifecycle
type SessionConfig struct {
	BasePublicURL   string
	UploadFolder    string
	SlugMaxAttempts int
	NotifyTimeout   time.Duration
}

// Notifiers holds the enabled channels. A nil channel is reported as skipped.
type Notifiers struct {
	Email Notifier
	SMS   Notifier
}

type UploadSignature struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	CloudName string `json:"cloudName"`
	APIKey    string `json:"apiKey"`
	Folder    string `json:"folder"`
}

type CompleteResult struct {
	DownloadURL  string          `json:"downloadUrl"`
	FinalReelURL string          `json:"finalReelUrl"`
	ReelAssetID  string          `json:"reelAssetId"`
	Slug         string          `json:"slug"`
	Strategy     domain.Strategy `json:"strategy"`
}

type NotifyResult struct {
	Email Outcome `json:"email"`
	SMS   Outcome `json:"sms"`
}

type PublicReel struct {
	ReelAssetID string `json:"reelAssetId"`
	URL         string `json:"url"`
}

// SessionService owns every mutation of a session record.
type SessionService struct {
	repo      repository.SessionRepository
	reels     ReelGenerator
	store     assetstore.Store
	slugs     slug.Generator
	notifiers Notifiers
	cache     ReelCache
	cfg       SessionConfig
	now       func() time.Time
	logger    *zap.Logger
}

// NewSessionService wires the session lifecycle. cache may be nil.
func NewSessionService(
	repo repository.SessionRepository,
	reels ReelGenerator,
	store assetstore.Store,
	slugs slug.Generator,
	notifiers Notifiers,
	cache ReelCache,
	cfg SessionConfig,
	logger *zap.Logger,
) *SessionService {
	if cfg.SlugMaxAttempts < 1 {
		cfg.SlugMaxAttempts = 5
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 15 * time.Second
	}
	return &SessionService{
		repo:      repo,
		reels:     reels,
		store:     store,
		slugs:     slugs,
		notifiers: notifiers,
		cache:     cache,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.With(zap.String("component", "session")),
	}
}

// Create starts a new session with no photos
func (s *SessionService) Create(ctx context.Context, eventID *string) (*domain.Session, error) {
	session := domain.NewSession(eventID, s.now())
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("session created", zap.String("session_id", session.ID.String()))
	return session, nil
}

// Get returns the current session record
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError("session.get", err)
	}
	return session, nil
}

// UploadSignature signs a direct upload into the photo folder for an existing session
func (s *SessionService) UploadSignature(ctx context.Context, id uuid.UUID) (*UploadSignature, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, s.lookupError("session.upload_signature", err)
	}

	timestamp := s.now().Unix()
	signature, err := s.store.SignUpload(timestamp, s.cfg.UploadFolder)
	if err != nil {
		return nil, domain.UpstreamUnavailable("session.upload_signature", err)
	}

	creds := s.store.Credentials()
	return &UploadSignature{
		Signature: signature,
		Timestamp: timestamp,
		CloudName: creds.CloudName,
		APIKey:    creds.APIKey,
		Folder:    s.cfg.UploadFolder,
	}, nil
}

// AttachPhotos replaces the session's photo set with exactly three asset ids
func (s *SessionService) AttachPhotos(ctx context.Context, id uuid.UUID, photoAssetIDs []string) (*domain.Session, error) {
	const op = "session.attach_photos"

	photos, err := domain.NewPhotoSet(photoAssetIDs)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.SetPhotos(ctx, id, photos)
	switch {
	case errors.Is(err, domain.ErrSessionCompleted):
		return nil, domain.PreconditionFailed(op, "session already completed")
	case err != nil:
		return nil, s.lookupError(op, err)
	}

	return session, nil
}

// Complete generates the reel and assigns a fresh public slug. Slug
// collisions are retried up to SlugMaxAttempts times.
func (s *SessionService) Complete(ctx context.Context, id uuid.UUID) (*CompleteResult, error) {
	const op = "session.complete"

	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(op, err)
	}
	switch session.State() {
	case domain.StateCompleted:
		return nil, domain.PreconditionFailed(op, "session already completed")
	case domain.StateCreated:
		return nil, domain.PreconditionFailed(op, fmt.Sprintf("session needs %d photos", domain.PhotosPerReel))
	}

	generated, err := s.reels.Generate(ctx, session.PhotoAssetIDs())
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.SlugMaxAttempts; attempt++ {
		candidate, err := s.slugs.Generate()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		reel := domain.Reel{
			AssetID:     generated.AssetID,
			URL:         generated.URL,
			Slug:        candidate,
			DownloadURL: domain.DownloadPath(s.cfg.BasePublicURL, candidate),
		}

		replaced, err := s.repo.SetReel(ctx, id, *session.Photos, reel)
		if errors.Is(err, domain.ErrSlugTaken) {
			metrics.SlugCollisionsTotal.Inc()
			s.logger.Warn("slug collision, retrying",
				zap.String("session_id", id.String()),
				zap.String("slug", candidate),
				zap.Int("attempt", attempt),
			)
			lastErr = err
			continue
		}
		if errors.Is(err, domain.ErrPhotosChanged) {
			return nil, domain.PreconditionFailed(op, "photos were replaced while the reel was generated")
		}
		if err != nil {
			return nil, s.lookupError(op, err)
		}
		if replaced != "" && replaced != candidate {
			s.evict(ctx, replaced)
		}

		s.logger.Info("session completed",
			zap.String("session_id", id.String()),
			zap.String("slug", candidate),
			zap.String("strategy", string(generated.Strategy)),
		)
		return &CompleteResult{
			DownloadURL:  reel.DownloadURL,
			FinalReelURL: reel.URL,
			ReelAssetID:  reel.AssetID,
			Slug:         reel.Slug,
			Strategy:     generated.Strategy,
		}, nil
	}

	return nil, domain.ConflictExhausted(op, s.cfg.SlugMaxAttempts, lastErr)
}

// Notify sends the download link over every channel the recipient names.
// Channel failures are reported in the result, never returned.
func (s *SessionService) Notify(ctx context.Context, id uuid.UUID, recipient domain.Recipient) (*NotifyResult, error) {
	const op = "session.notify"

	recipient = normalizeRecipient(recipient)
	if recipient.Email == nil && recipient.Phone == nil {
		return nil, domain.InvalidInput(op, "email or phone is required")
	}

	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(op, err)
	}
	if session.Reel == nil {
		return nil, domain.PreconditionFailed(op, "session has no download link yet")
	}
	link := session.Reel.DownloadURL

	result := &NotifyResult{}
	var g errgroup.Group
	g.Go(func() error {
		result.Email = s.dispatch(ctx, "email", s.notifiers.Email, recipient.Email, link)
		return nil
	})
	g.Go(func() error {
		result.SMS = s.dispatch(ctx, "sms", s.notifiers.SMS, recipient.Phone, link)
		return nil
	})
	_ = g.Wait()

	var attempted domain.Recipient
	if result.Email != OutcomeSkipped {
		attempted.Email = recipient.Email
	}
	if result.SMS != OutcomeSkipped {
		attempted.Phone = recipient.Phone
	}
	if attempted.Email != nil || attempted.Phone != nil {
		if _, err := s.repo.SetNotified(ctx, id, attempted); err != nil {
			s.logger.Warn("failed to record notified recipients", zap.String("session_id", id.String()), zap.Error(err))
		}
	}

	return result, nil
}

func (s *SessionService) dispatch(ctx context.Context, channel string, notifier Notifier, to *string, link string) Outcome {
	if to == nil || notifier == nil {
		if to != nil {
			s.logger.Info("notification channel disabled", zap.String("channel", channel))
		}
		metrics.NotificationsTotal.WithLabelValues(channel, string(OutcomeSkipped)).Inc()
		return OutcomeSkipped
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()

	if err := notifier.SendDownloadLink(ctx, *to, link); err != nil {
		s.logger.Warn("notification failed", zap.String("channel", channel), zap.Error(err))
		metrics.NotificationsTotal.WithLabelValues(channel, string(OutcomeFailed)).Inc()
		return OutcomeFailed
	}

	metrics.NotificationsTotal.WithLabelValues(channel, string(OutcomeSent)).Inc()
	return OutcomeSent
}

// ResolvePublic maps a slug to its reel. Unknown slugs and slugs of
// unfinished sessions produce the same NotFound error.
func (s *SessionService) ResolvePublic(ctx context.Context, slugValue string) (*PublicReel, error) {
	const op = "session.resolve"
	notFound := domain.NotFound(op, "reel not found")

	if slugValue == "" {
		return nil, notFound
	}

	if s.cache != nil {
		entry, err := s.cache.Get(ctx, slugValue)
		if err != nil {
			s.logger.Warn("reel cache read failed", zap.String("slug", slugValue), zap.Error(err))
		} else if entry != nil {
			return &PublicReel{ReelAssetID: entry.ReelAssetID, URL: entry.URL}, nil
		}
	}

	session, err := s.repo.GetBySlug(ctx, slugValue)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if session.Reel == nil || session.Reel.AssetID == "" {
		return nil, notFound
	}

	public := &PublicReel{ReelAssetID: session.Reel.AssetID, URL: session.Reel.URL}
	if s.cache != nil {
		if err := s.cache.Set(ctx, slugValue, reelcache.Entry{ReelAssetID: public.ReelAssetID, URL: public.URL}); err != nil {
			s.logger.Warn("reel cache write failed", zap.String("slug", slugValue), zap.Error(err))
		}
	}

	return public, nil
}

// evict drops a slug that no longer resolves from the cache
func (s *SessionService) evict(ctx context.Context, slugValue string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, slugValue); err != nil {
		s.logger.Warn("reel cache eviction failed", zap.String("slug", slugValue), zap.Error(err))
	}
}

// Ping reports whether the session store is reachable
func (s *SessionService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *SessionService) lookupError(op string, err error) error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NotFound(op, "session not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func normalizeRecipient(r domain.Recipient) domain.Recipient {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		if t == "" {
			return nil
		}
		return &t
	}
	return domain.Recipient{Email: trim(r.Email), Phone: trim(r.Phone)}
}
