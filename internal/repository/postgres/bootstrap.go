package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Beliver-247/photoBooth-server/internal/repository/postgres/migrations"
)

// SlugIndexName is the sparse unique index guarding public slugs.
const SlugIndexName = "photo_sessions_slug_key"

// legacySlugIndexes are names earlier deployments used for a non-sparse slug index.
var legacySlugIndexes = []string{"slug_1", "photo_sessions_slug_idx"}

// Migrate applies the embedded schema migrations.
func Migrate(db *sqlx.DB) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// ReconcileSlugIndex makes sure slug uniqueness is enforced only among
// sessions that hold a slug. A full unique index or constraint left under the
// canonical or a legacy name is dropped and recreated as a partial index.
// Running it again is a no-op.
func ReconcileSlugIndex(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	def, found, err := indexDefinition(ctx, db, SlugIndexName)
	if err != nil {
		return err
	}
	if found && isSparse(def) {
		logger.Debug("slug index already sparse", zap.String("index", SlugIndexName))
		return dropLegacyIndexes(ctx, db, logger)
	}

	if found {
		logger.Info("replacing non-sparse slug index", zap.String("index", SlugIndexName), zap.String("definition", def))
		if err := dropIndex(ctx, db, SlugIndexName); err != nil {
			return err
		}
	}

	if err := dropLegacyIndexes(ctx, db, logger); err != nil {
		return err
	}

	query := fmt.Sprintf(
		`CREATE UNIQUE INDEX IF NOT EXISTS %s ON photo_sessions (slug) WHERE slug IS NOT NULL`,
		SlugIndexName,
	)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create sparse slug index: %w", err)
	}
	logger.Info("sparse unique slug index ready", zap.String("index", SlugIndexName))

	return nil
}

func dropLegacyIndexes(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	for _, name := range legacySlugIndexes {
		_, found, err := indexDefinition(ctx, db, name)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		logger.Info("dropping legacy slug index", zap.String("index", name))
		if err := dropIndex(ctx, db, name); err != nil {
			return err
		}
	}
	return nil
}

func indexDefinition(ctx context.Context, db *sqlx.DB, name string) (string, bool, error) {
	query := `
		SELECT indexdef
		FROM pg_indexes
		WHERE schemaname = current_schema() AND tablename = 'photo_sessions' AND indexname = $1`

	var def string
	err := db.GetContext(ctx, &def, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to inspect index %s: %w", name, err)
	}
	return def, true, nil
}

// dropIndex removes an index whether it backs a table constraint or stands alone.
func dropIndex(ctx context.Context, db *sqlx.DB, name string) error {
	stmts := []string{
		fmt.Sprintf(`ALTER TABLE photo_sessions DROP CONSTRAINT IF EXISTS %s`, pq.QuoteIdentifier(name)),
		fmt.Sprintf(`DROP INDEX IF EXISTS %s`, pq.QuoteIdentifier(name)),
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop index %s: %w", name, err)
		}
	}
	return nil
}

func isSparse(indexDef string) bool {
	upper := strings.ToUpper(indexDef)
	return strings.Contains(upper, "UNIQUE") && strings.Contains(upper, " WHERE ")
}
