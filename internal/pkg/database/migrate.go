package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Migrate applies every pending schema migration.
func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("database.Migrate: %w", err)
	}

	if err := goose.Up(db.DB, migrationsDir); err != nil {
		if errors.Is(err, goose.ErrNoNextVersion) {
			log.Info().Msg("No migrations to apply")
			return nil
		}
		return fmt.Errorf("database.Migrate: %w", err)
	}

	log.Info().Msg("Database migrations applied")
	return nil
}
