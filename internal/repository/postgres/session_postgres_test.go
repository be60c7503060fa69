package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Beliver-247/photoBooth-server/internal/domain"
)

var rowColumns = []string{
	"id", "event_id", "photo_asset_ids", "reel_asset_id", "reel_url", "slug",
	"download_url", "notified_email", "notified_phone", "created_at", "updated_at",
}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func testPhotos(t *testing.T) domain.PhotoSet {
	t.Helper()
	photos, err := domain.NewPhotoSet([]string{"p1", "p2", "p3"})
	require.NoError(t, err)
	return photos
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM photo_sessions WHERE id = $1")).
		WithArgs(id.String()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBySlugMapsCompletedRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepository(db)
	id := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows(rowColumns).AddRow(
		id.String(), "evt-1", "{p1,p2,p3}", "p1_reel", "https://cdn/reel.jpg", "AbCdEfGh",
		"https://booth/r/AbCdEfGh", nil, nil, now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM photo_sessions WHERE slug = $1")).
		WithArgs("AbCdEfGh").
		WillReturnRows(rows)

	s, err := repo.GetBySlug(context.Background(), "AbCdEfGh")
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, domain.StateCompleted, s.State())
	assert.Equal(t, []string{"p1", "p2", "p3"}, s.PhotoAssetIDs())
	assert.Equal(t, "p1_reel", s.Reel.AssetID)
	assert.Equal(t, "https://booth/r/AbCdEfGh", s.Reel.DownloadURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRowWithPartialPhotoSetIsRejected(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepository(db)
	id := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows(rowColumns).AddRow(
		id.String(), nil, "{p1,p2}", nil, nil, nil, nil, nil, nil, now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM photo_sessions WHERE id = $1")).WillReturnRows(rows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorContains(t, err, "corrupt photo set")
}

func TestSetReelSlugViolation(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE photo_sessions")).
		WithArgs(id.String(), "p1_reel", "https://cdn/reel.jpg", "DUPLICAT", "https://booth/r/DUPLICAT", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: SlugIndexName})

	_, err := repo.SetReel(context.Background(), id, testPhotos(t), domain.Reel{
		AssetID:     "p1_reel",
		URL:         "https://cdn/reel.jpg",
		Slug:        "DUPLICAT",
		DownloadURL: "https://booth/r/DUPLICAT",
	})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetReelOtherUniqueViolationIsNotSlugTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE photo_sessions")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "photo_sessions_pkey"})

	_, err := repo.SetReel(context.Background(), uuid.New(), testPhotos(t), domain.Reel{Slug: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSlugTaken)
}

func TestSetReelIsConditionalOnPhotos(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = prev.prev_id AND photo_asset_ids = $6")).
		WithArgs(id.String(), "p1_reel", "u", "ABCDEFGH", "d", "{\"p1\",\"p2\",\"p3\"}").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.SetReel(context.Background(), id, testPhotos(t),
		domain.Reel{AssetID: "p1_reel", URL: "u", Slug: "ABCDEFGH", DownloadURL: "d"})
	assert.ErrorIs(t, err, domain.ErrPhotosChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetReelMissingSession(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE photo_sessions")).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.SetReel(context.Background(), id, testPhotos(t), domain.Reel{Slug: "ABCDEFGH"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSetReelReturnsReplacedSlug(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("RETURNING prev.prev_slug")).
		WillReturnRows(sqlmock.NewRows([]string{"prev_slug"}).AddRow("OLDSLUG1"))
	replaced, err := repo.SetReel(context.Background(), uuid.New(), testPhotos(t), domain.Reel{Slug: "NEWSLUG1"})
	require.NoError(t, err)
	assert.Equal(t, "OLDSLUG1", replaced)

	mock.ExpectQuery(regexp.QuoteMeta("RETURNING prev.prev_slug")).
		WillReturnRows(sqlmock.NewRows([]string{"prev_slug"}).AddRow(nil))
	replaced, err = repo.SetReel(context.Background(), uuid.New(), testPhotos(t), domain.Reel{Slug: "NEWSLUG2"})
	require.NoError(t, err)
	assert.Empty(t, replaced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPhotosDistinguishesMissingFromCompleted(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepository(db)
	id := uuid.New()
	photos, err := domain.NewPhotoSet([]string{"p1", "p2", "p3"})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SET photo_asset_ids = $2")).
		WithArgs(id.String(), sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err = repo.SetPhotos(context.Background(), id, photos)
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)

	mock.ExpectQuery(regexp.QuoteMeta("SET photo_asset_ids = $2")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err = repo.SetPhotos(context.Background(), id, photos)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileSlugIndexReplacesFullIndex(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM pg_indexes")).
		WithArgs(SlugIndexName).
		WillReturnRows(sqlmock.NewRows([]string{"indexdef"}).
			AddRow("CREATE UNIQUE INDEX photo_sessions_slug_key ON public.photo_sessions USING btree (slug)"))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE photo_sessions DROP CONSTRAINT IF EXISTS "photo_sessions_slug_key"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DROP INDEX IF EXISTS "photo_sessions_slug_key"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM pg_indexes")).
		WithArgs("slug_1").
		WillReturnRows(sqlmock.NewRows([]string{"indexdef"}).
			AddRow("CREATE UNIQUE INDEX slug_1 ON public.photo_sessions USING btree (slug)"))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE photo_sessions DROP CONSTRAINT IF EXISTS "slug_1"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DROP INDEX IF EXISTS "slug_1"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM pg_indexes")).
		WithArgs("photo_sessions_slug_idx").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("CREATE UNIQUE INDEX IF NOT EXISTS photo_sessions_slug_key ON photo_sessions (slug) WHERE slug IS NOT NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, ReconcileSlugIndex(context.Background(), db, zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileSlugIndexIsNoOpWhenSparse(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM pg_indexes")).
		WithArgs(SlugIndexName).
		WillReturnRows(sqlmock.NewRows([]string{"indexdef"}).
			AddRow("CREATE UNIQUE INDEX photo_sessions_slug_key ON public.photo_sessions USING btree (slug) WHERE (slug IS NOT NULL)"))
	for _, name := range legacySlugIndexes {
		mock.ExpectQuery(regexp.QuoteMeta("FROM pg_indexes")).
			WithArgs(name).
			WillReturnError(sql.ErrNoRows)
	}

	require.NoError(t, ReconcileSlugIndex(context.Background(), db, zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsSparse(t *testing.T) {
	assert.True(t, isSparse("CREATE UNIQUE INDEX x ON t USING btree (slug) WHERE (slug IS NOT NULL)"))
	assert.False(t, isSparse("CREATE UNIQUE INDEX x ON t USING btree (slug)"))
	assert.False(t, isSparse("CREATE INDEX x ON t USING btree (slug) WHERE (slug IS NOT NULL)"))
}
