package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	storylinedb "github.com/the-dev-tools/storyline/db"
)

// Config controls runner behaviour.
type Config struct {
	// BackupDir receives a snapshot before migrations that require one.
	BackupDir     string
	RetainBackups int
	ForceBackup   bool
}

// Runner applies registered migrations against the database.
type Runner struct {
	db      *sql.DB
	store   *Store
	logger  *slog.Logger
	cfg     Config
	backup  *BackupManager
	nowFunc func() time.Time
}

func NewRunner(db *sql.DB, cfg Config, logger *slog.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("migrate: db handle is required")
	}
	if cfg.RetainBackups <= 0 {
		cfg.RetainBackups = 3
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Runner{
		db:      db,
		store:   NewStore(db),
		logger:  logger,
		cfg:     cfg,
		backup:  &BackupManager{BackupDir: cfg.BackupDir, Retain: cfg.RetainBackups},
		nowFunc: time.Now,
	}, nil
}

// ApplyAll runs every registered migration in order.
func (r *Runner) ApplyAll(ctx context.Context) error {
	return r.apply(ctx, "")
}

// ApplyTo runs migrations up to and including targetID.
func (r *Runner) ApplyTo(ctx context.Context, targetID string) error {
	return r.apply(ctx, targetID)
}

// Pending returns the registered migrations that have not finished.
func (r *Runner) Pending(ctx context.Context) ([]Migration, error) {
	if err := r.store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	var out []Migration
	for _, mig := range List() {
		rec, err := r.store.GetRecord(ctx, mig.ID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			out = append(out, mig)
		case err != nil:
			return nil, err
		case rec.Status != StatusFinished:
			out = append(out, mig)
		}
	}
	return out, nil
}

func (r *Runner) apply(ctx context.Context, targetID string) error {
	unlock := lockProcess()
	defer unlock()

	if err := r.store.EnsureSchema(ctx); err != nil {
		return err
	}

	for _, mig := range List() {
		if targetID != "" && mig.ID > targetID {
			break
		}

		rec, err := r.store.GetRecord(ctx, mig.ID)
		if err == nil {
			if rec.Status == StatusFinished {
				if rec.Checksum != mig.Checksum {
					return fmt.Errorf("%w: stored=%s new=%s", ErrChecksumMismatch, rec.Checksum, mig.Checksum)
				}
				continue
			}
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if err := r.runMigration(ctx, mig); err != nil {
			return err
		}
	}
	return nil
}

var processMutex sync.Mutex

func lockProcess() func() {
	processMutex.Lock()
	return processMutex.Unlock
}

func (r *Runner) runMigration(ctx context.Context, mig Migration) error {
	if mig.Precheck != nil {
		if err := mig.Precheck(ctx, r.db); err != nil {
			return fmt.Errorf("migrate: precheck %s: %w", mig.ID, err)
		}
	}

	var backupPath *string
	if r.cfg.ForceBackup || mig.RequiresBackup {
		path, err := r.backup.Create(ctx, r.db, mig.ID, r.nowFunc())
		if err != nil {
			return fmt.Errorf("migrate: backup %s: %w", mig.ID, err)
		}
		backupPath = &path
	}

	metaTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin metadata tx for %s: %w", mig.ID, err)
	}
	defer storylinedb.TxnRollback(metaTx)

	record, err := r.store.MarkStarted(ctx, metaTx, StartParams{
		ID:         mig.ID,
		Checksum:   mig.Checksum,
		StartedAt:  r.nowFunc(),
		BackupPath: backupPath,
	})
	if err != nil {
		return err
	}
	if err := metaTx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit metadata start %s: %w", mig.ID, err)
	}

	r.logger.InfoContext(ctx, "migration started",
		slog.String("migration_id", mig.ID),
		slog.String("description", mig.Description),
		slog.Int("attempt", record.Attempts),
	)
	if backupPath != nil {
		r.logger.InfoContext(ctx, "migration backup created",
			slog.String("migration_id", mig.ID),
			slog.String("backup_path", *backupPath),
		)
	}

	execStart := r.nowFunc()

	// Validate-only migrations check state an earlier release created.
	if mig.Apply != nil {
		tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return fmt.Errorf("migrate: begin tx for %s: %w", mig.ID, err)
		}
		defer storylinedb.TxnRollback(tx)

		if err := mig.Apply(ctx, tx); err != nil {
			storylinedb.TxnRollback(tx)
			_ = r.recordError(ctx, mig.ID, err)
			r.logger.ErrorContext(ctx, "migration apply failed",
				slog.String("migration_id", mig.ID),
				slog.Int("attempt", record.Attempts),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("migrate: apply %s: %w", mig.ID, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate: commit %s: %w", mig.ID, err)
		}
	}

	if mig.Validate != nil {
		if err := mig.Validate(ctx, r.db); err != nil {
			_ = r.recordError(ctx, mig.ID, err)
			r.logger.ErrorContext(ctx, "migration validate failed",
				slog.String("migration_id", mig.ID),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("migrate: validate %s: %w", mig.ID, err)
		}
	}

	finishTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin finish tx %s: %w", mig.ID, err)
	}
	defer storylinedb.TxnRollback(finishTx)

	finishRec, err := r.store.MarkFinished(ctx, finishTx, FinishParams{ID: mig.ID, FinishedAt: r.nowFunc()})
	if err != nil {
		return err
	}
	if err := finishTx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit finish %s: %w", mig.ID, err)
	}

	if backupPath != nil {
		if err := r.backup.Trim(); err != nil {
			r.logger.WarnContext(ctx, "failed to trim backups", slog.String("error", err.Error()))
		}
	}

	r.logger.InfoContext(ctx, "migration applied",
		slog.String("migration_id", mig.ID),
		slog.Int("attempt", finishRec.Attempts),
		slog.Duration("duration", r.nowFunc().Sub(execStart)),
	)
	return nil
}

func (r *Runner) recordError(ctx context.Context, id string, cause error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer storylinedb.TxnRollback(tx)

	if err := r.store.SetError(ctx, tx, id, cause.Error()); err != nil {
		return err
	}
	return tx.Commit()
}
