package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/ghuser/salesledger/pkg/logger"
)

// Direction selects which way Run moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Run applies (or rolls back one step of) the goose migrations in files
// against db. The caller owns db.
func Run(ctx context.Context, db *sql.DB, files fs.FS, dir Direction, log logger.Logger) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, files)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	var results []*goose.MigrationResult
	switch dir {
	case Up:
		results, err = provider.Up(ctx)
	case Down:
		var res *goose.MigrationResult
		res, err = provider.Down(ctx)
		if res != nil {
			results = append(results, res)
		}
	default:
		return fmt.Errorf("unknown migration direction %q", dir)
	}
	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			"version", r.Source.Version,
			"file", r.Source.Path,
			"direction", r.Direction,
			"duration", r.Duration,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations %s: %w", dir, err)
	}
	if len(results) == 0 {
		log.InfoContext(ctx, "schema up to date")
	}
	return nil
}

// Pending reports whether files contains migrations not yet applied to db.
func Pending(ctx context.Context, db *sql.DB, files fs.FS) (bool, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, files)
	if err != nil {
		return false, fmt.Errorf("failed to create goose provider: %w", err)
	}
	pending, err := provider.HasPending(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check pending migrations: %w", err)
	}
	return pending, nil
}
