package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"musiccrate/internal/database"
)

// MigrateUp applies all pending migrations.
func (r *Runner) MigrateUp(ctx context.Context, cmd *cli.Command) error {
	if err := database.Migrate(r.config.Database.Driver, r.config.Database.URL, database.Up); err != nil {
		return err
	}
	r.logger.Info("migrations applied")
	return nil
}

// MigrateDown rolls back every migration.
func (r *Runner) MigrateDown(ctx context.Context, cmd *cli.Command) error {
	if err := database.Migrate(r.config.Database.Driver, r.config.Database.URL, database.Down); err != nil {
		return err
	}
	r.logger.Info("migrations rolled back")
	return nil
}

// MigrateVersion prints the applied schema version.
func (r *Runner) MigrateVersion(ctx context.Context, cmd *cli.Command) error {
	version, dirty, err := database.Version(r.config.Database.Driver, r.config.Database.URL)
	if err != nil {
		return err
	}
	return r.writePlain("version %d (dirty: %t)\n", version, dirty)
}
