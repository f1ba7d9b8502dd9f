package psql

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"shopcarts/pkg/lib/logger/sl"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrate applies every pending migration embedded in the binary.
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "database.psql.Migrate"
	log := s.log.With("op", op)

	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, s.db.DB, migrations)
	if err != nil {
		log.Error("Error creating migration provider", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		log.Error("Error applying migrations", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, r := range results {
		log.Info("Migration applied", "version", r.Source.Version, "duration", r.Duration.String())
	}

	return nil
}
