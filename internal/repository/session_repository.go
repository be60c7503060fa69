package repository

import (
	"context"

	"github.com/Beliver-247/photoBooth-server/internal/domain"
	"github.com/google/uuid"
)

// SessionRepository persists photobooth sessions. Every mutating method is a
// single atomic read-modify-write keyed by session id.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	// GetBySlug returns domain.ErrSessionNotFound when no session holds slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Session, error)
	// SetPhotos replaces the photo set. It returns domain.ErrSessionCompleted
	// once a reel has been assigned.
	SetPhotos(ctx context.Context, id uuid.UUID, photos domain.PhotoSet) (*domain.Session, error)
	// SetReel stores reel, slug and download URL together, but only while the
	// stored photos equal photos; otherwise it returns domain.ErrPhotosChanged.
	// A slug held by another session yields domain.ErrSlugTaken. The slug the
	// session held before, if any, is returned.
	SetReel(ctx context.Context, id uuid.UUID, photos domain.PhotoSet, reel domain.Reel) (replacedSlug string, err error)
	// SetNotified records attempted recipients. Nil fields keep their value.
	SetNotified(ctx context.Context, id uuid.UUID, recipient domain.Recipient) (*domain.Session, error)
	Ping(ctx context.Context) error
}
