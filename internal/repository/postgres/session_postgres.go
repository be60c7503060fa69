package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Beliver-247/photoBooth-server/internal/domain"
	"github.com/Beliver-247/photoBooth-server/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const sessionColumns = `id, event_id, photo_asset_ids, reel_asset_id, reel_url, slug,
	download_url, notified_email, notified_phone, created_at, updated_at`

// sessionRow is the photo_sessions table shape.
type sessionRow struct {
	ID            uuid.UUID      `db:"id"`
	EventID       *string        `db:"event_id"`
	PhotoAssetIDs pq.StringArray `db:"photo_asset_ids"`
	ReelAssetID   *string        `db:"reel_asset_id"`
	ReelURL       *string        `db:"reel_url"`
	Slug          *string        `db:"slug"`
	DownloadURL   *string        `db:"download_url"`
	NotifiedEmail *string        `db:"notified_email"`
	NotifiedPhone *string        `db:"notified_phone"`
	CreatedAt     sql.NullTime   `db:"created_at"`
	UpdatedAt     sql.NullTime   `db:"updated_at"`
}

func toRow(s *domain.Session) sessionRow {
	row := sessionRow{
		ID:            s.ID,
		EventID:       s.EventID,
		PhotoAssetIDs: pq.StringArray(s.PhotoAssetIDs()),
		NotifiedEmail: s.Notified.Email,
		NotifiedPhone: s.Notified.Phone,
		CreatedAt:     sql.NullTime{Time: s.CreatedAt, Valid: true},
		UpdatedAt:     sql.NullTime{Time: s.UpdatedAt, Valid: true},
	}
	if s.Reel != nil {
		row.ReelAssetID = &s.Reel.AssetID
		row.ReelURL = &s.Reel.URL
		row.Slug = &s.Reel.Slug
		row.DownloadURL = &s.Reel.DownloadURL
	}
	return row
}

func (r sessionRow) toDomain() (*domain.Session, error) {
	s := &domain.Session{
		ID:        r.ID,
		EventID:   r.EventID,
		Notified:  domain.Recipient{Email: r.NotifiedEmail, Phone: r.NotifiedPhone},
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
	switch len(r.PhotoAssetIDs) {
	case 0:
	case domain.PhotosPerReel:
		set, err := domain.NewPhotoSet(r.PhotoAssetIDs)
		if err != nil {
			return nil, fmt.Errorf("corrupt photo set on session %s: %w", r.ID, err)
		}
		s.Photos = &set
	default:
		return nil, fmt.Errorf("corrupt photo set on session %s: %d photos", r.ID, len(r.PhotoAssetIDs))
	}
	if r.ReelAssetID != nil && r.Slug != nil {
		s.Reel = &domain.Reel{
			AssetID:     *r.ReelAssetID,
			URL:         deref(r.ReelURL),
			Slug:        *r.Slug,
			DownloadURL: deref(r.DownloadURL),
		}
	}
	return s, nil
}

type sessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a new session into the database
func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO photo_sessions (
			id, event_id, photo_asset_ids, reel_asset_id, reel_url, slug,
			download_url, notified_email, notified_phone, created_at, updated_at
		) VALUES (
			:id, :event_id, :photo_asset_ids, :reel_asset_id, :reel_url, :slug,
			:download_url, :notified_email, :notified_phone, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, toRow(session))
	if err != nil {
		if isSlugViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its ID
func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM photo_sessions WHERE id = $1`

	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	return row.toDomain()
}

// GetBySlug retrieves the session holding a public slug
func (r *sessionRepository) GetBySlug(ctx context.Context, slug string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM photo_sessions WHERE slug = $1`

	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session by slug: %w", err)
	}

	return row.toDomain()
}

// SetPhotos replaces the photo set of a session that has not completed
func (r *sessionRepository) SetPhotos(ctx context.Context, id uuid.UUID, photos domain.PhotoSet) (*domain.Session, error) {
	query := `
		UPDATE photo_sessions
		SET photo_asset_ids = $2,
			updated_at = NOW()
		WHERE id = $1 AND reel_asset_id IS NULL
		RETURNING ` + sessionColumns

	var row sessionRow
	err := r.db.GetContext(ctx, &row, query, id, pq.StringArray(photos.Slice()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.missOr(ctx, id, domain.ErrSessionCompleted)
		}
		return nil, fmt.Errorf("failed to set session photos: %w", err)
	}

	return row.toDomain()
}

// SetReel assigns reel, slug and download URL in one statement, provided the
// stored photos are still the ones the reel was rendered from. It returns the
// slug the session held before, if any.
func (r *sessionRepository) SetReel(ctx context.Context, id uuid.UUID, photos domain.PhotoSet, reel domain.Reel) (string, error) {
	query := `
		WITH prev AS (
			SELECT id AS prev_id, slug AS prev_slug
			FROM photo_sessions
			WHERE id = $1
			FOR UPDATE
		)
		UPDATE photo_sessions
		SET reel_asset_id = $2,
			reel_url = $3,
			slug = $4,
			download_url = $5,
			updated_at = NOW()
		FROM prev
		WHERE id = prev.prev_id AND photo_asset_ids = $6
		RETURNING prev.prev_slug`

	var replaced sql.NullString
	err := r.db.GetContext(ctx, &replaced, query,
		id, reel.AssetID, reel.URL, reel.Slug, reel.DownloadURL, pq.StringArray(photos.Slice()))
	if err != nil {
		if isSlugViolation(err) {
			return "", domain.ErrSlugTaken
		}
		if errors.Is(err, sql.ErrNoRows) {
			return "", r.missOr(ctx, id, domain.ErrPhotosChanged)
		}
		return "", fmt.Errorf("failed to set session reel: %w", err)
	}

	return replaced.String, nil
}

// SetNotified records the recipients a share was attempted for
func (r *sessionRepository) SetNotified(ctx context.Context, id uuid.UUID, recipient domain.Recipient) (*domain.Session, error) {
	query := `
		UPDATE photo_sessions
		SET notified_email = COALESCE($2, notified_email),
			notified_phone = COALESCE($3, notified_phone),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + sessionColumns

	var row sessionRow
	err := r.db.GetContext(ctx, &row, query, id, recipient.Email, recipient.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to set session recipients: %w", err)
	}

	return row.toDomain()
}

func (r *sessionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// missOr reports ErrSessionNotFound when id does not exist and otherwise the
// reason a conditional update matched no row.
func (r *sessionRepository) missOr(ctx context.Context, id uuid.UUID, reason error) error {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM photo_sessions WHERE id = $1)`, id)
	if err != nil {
		return fmt.Errorf("failed to check session existence: %w", err)
	}
	if !exists {
		return domain.ErrSessionNotFound
	}
	return reason
}

func isSlugViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == uniqueViolation && pqErr.Constraint == SlugIndexName
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
