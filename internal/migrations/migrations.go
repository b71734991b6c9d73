// Package migrations registers the storyline schema migrations and runs
// them through internal/migrate.
package migrations

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/the-dev-tools/storyline/internal/migrate"
)

type Config struct {
	BackupDir     string
	RetainBackups int
	// Backup snapshots the database before every migration, not only the
	// ones that require it.
	Backup bool
}

// Run applies every pending migration.
func Run(ctx context.Context, db *sql.DB, cfg Config, logger *slog.Logger) error {
	runner, err := newRunner(db, cfg, logger)
	if err != nil {
		return err
	}
	return runner.ApplyAll(ctx)
}

// Pending lists the migrations Run would apply.
func Pending(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]migrate.Migration, error) {
	runner, err := newRunner(db, Config{}, logger)
	if err != nil {
		return nil, err
	}
	return runner.Pending(ctx)
}

func newRunner(db *sql.DB, cfg Config, logger *slog.Logger) (*migrate.Runner, error) {
	return migrate.NewRunner(db, migrate.Config{
		BackupDir:     cfg.BackupDir,
		RetainBackups: cfg.RetainBackups,
		ForceBackup:   cfg.Backup,
	}, logger)
}
