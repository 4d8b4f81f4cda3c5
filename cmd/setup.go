package main

import (
	"context"
	"fmt"

	"github.com/dnbdoctor/labelsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, closeDB, err := r.openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	states, err := shared.MigrationStatus(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	for _, s := range states {
		status := r.painter.Muted("pending")
		if s.Applied {
			status = r.painter.Success("applied")
		}
		r.writePlain("%03d %-32s %s\n", s.Version, s.Name, status)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}

// SetupRollback reverts the latest applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	version, err := shared.RollbackMigration(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	r.logger.Info("rolled back migration", "version", version)
	return r.writePlain("✓ Rolled back migration %03d\n", version)
}

// SetupConfig writes the embedded example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		return fmt.Errorf("%w: --config", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Wrote %s\nSecrets (R2_*, LEGACY_DB_*) belong in the environment or a .env file.\n", path)
}
