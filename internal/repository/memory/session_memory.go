// Package memory provides an in-process session store with the same
// sparse slug uniqueness as the Postgres store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Beliver-247/photoBooth-server/internal/domain"
	"github.com/Beliver-247/photoBooth-server/internal/repository"
	"github.com/google/uuid"
)

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*domain.Session
	slugs    map[string]uuid.UUID
	now      func() time.Time
}

// NewSessionRepository creates an empty in-memory session repository
func NewSessionRepository() repository.SessionRepository {
	return &sessionRepository{
		sessions: make(map[uuid.UUID]*domain.Session),
		slugs:    make(map[string]uuid.UUID),
		now:      time.Now,
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.Reel != nil {
		if owner, ok := r.slugs[session.Reel.Slug]; ok && owner != session.ID {
			return domain.ErrSlugTaken
		}
		r.slugs[session.Reel.Slug] = session.ID
	}
	r.sessions[session.ID] = clone(session)
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return clone(s), nil
}

func (r *sessionRepository) GetBySlug(ctx context.Context, slug string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.slugs[slug]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return clone(r.sessions[id]), nil
}

func (r *sessionRepository) SetPhotos(ctx context.Context, id uuid.UUID, photos domain.PhotoSet) (*domain.Session, error) {
	return r.update(ctx, id, func(s *domain.Session) error {
		if s.Reel != nil {
			return domain.ErrSessionCompleted
		}
		set := photos
		s.Photos = &set
		return nil
	})
}

func (r *sessionRepository) SetReel(ctx context.Context, id uuid.UUID, photos domain.PhotoSet, reel domain.Reel) (string, error) {
	var replaced string
	_, err := r.update(ctx, id, func(s *domain.Session) error {
		if s.Photos == nil || *s.Photos != photos {
			return domain.ErrPhotosChanged
		}
		if owner, ok := r.slugs[reel.Slug]; ok && owner != id {
			return domain.ErrSlugTaken
		}
		if s.Reel != nil {
			replaced = s.Reel.Slug
			delete(r.slugs, s.Reel.Slug)
		}
		assigned := reel
		s.Reel = &assigned
		r.slugs[reel.Slug] = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return replaced, nil
}

func (r *sessionRepository) SetNotified(ctx context.Context, id uuid.UUID, recipient domain.Recipient) (*domain.Session, error) {
	return r.update(ctx, id, func(s *domain.Session) error {
		if recipient.Email != nil {
			s.Notified.Email = stringPtr(*recipient.Email)
		}
		if recipient.Phone != nil {
			s.Notified.Phone = stringPtr(*recipient.Phone)
		}
		return nil
	})
}

func (r *sessionRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// update applies mutate to a working copy and commits it only on success.
func (r *sessionRepository) update(ctx context.Context, id uuid.UUID, mutate func(*domain.Session) error) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	working := clone(current)
	if err := mutate(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = r.now()
	r.sessions[id] = working
	return clone(working), nil
}

func clone(s *domain.Session) *domain.Session {
	c := *s
	if s.EventID != nil {
		c.EventID = stringPtr(*s.EventID)
	}
	if s.Photos != nil {
		photos := *s.Photos
		c.Photos = &photos
	}
	if s.Reel != nil {
		reel := *s.Reel
		c.Reel = &reel
	}
	if s.Notified.Email != nil {
		c.Notified.Email = stringPtr(*s.Notified.Email)
	}
	if s.Notified.Phone != nil {
		c.Notified.Phone = stringPtr(*s.Notified.Phone)
	}
	return &c
}

func stringPtr(s string) *string {
	return &s
}
