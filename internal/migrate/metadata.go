package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status represents the state of a migration record.
type Status string

const (
	StatusStarted  Status = "started"
	StatusFinished Status = "finished"
)

// ErrChecksumMismatch is returned when a finished migration is registered
// again with different content.
var ErrChecksumMismatch = errors.New("migrate: checksum mismatch for migration")

// Record models a row in schema_migrations.
type Record struct {
	ID         string
	Status     Status
	Checksum   string
	Attempts   int
	StartedAt  time.Time
	FinishedAt *time.Time
	LastError  sql.NullString
	BackupPath sql.NullString
}

const createSchemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL CHECK (status IN ('started', 'finished')),
    checksum TEXT NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    started_at INTEGER NOT NULL,
    finished_at INTEGER,
    last_error TEXT,
    backup_path TEXT
);
`

const createSchemaMigrationsStatusIdx = `
CREATE INDEX IF NOT EXISTS idx_schema_migrations_status ON schema_migrations(status);
`

const selectRecord = `
SELECT id, status, checksum, attempts, started_at, finished_at, last_error, backup_path
FROM schema_migrations
WHERE id = ?`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store reads and writes schema_migrations.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the metadata table and its index.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSchemaMigrationsTable); err != nil {
		return fmt.Errorf("migrate: creating schema_migrations table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createSchemaMigrationsStatusIdx); err != nil {
		return fmt.Errorf("migrate: creating schema_migrations status index: %w", err)
	}
	return nil
}

type StartParams struct {
	ID         string
	Checksum   string
	StartedAt  time.Time
	BackupPath *string
}

// MarkStarted inserts or updates the row of an in-progress migration. It
// bumps attempts and clears last_error.
func (s *Store) MarkStarted(ctx context.Context, tx *sql.Tx, params StartParams) (Record, error) {
	existing, err := getRecord(ctx, tx, params.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (id, status, checksum, attempts, started_at, backup_path)
             VALUES (?, ?, ?, 1, ?, ?)`,
			params.ID, StatusStarted, params.Checksum, params.StartedAt.UnixMilli(), nullableString(params.BackupPath))
		if err != nil {
			return Record{}, fmt.Errorf("migrate: insert started: %w", err)
		}
	case err != nil:
		return Record{}, err
	default:
		if existing.Status == StatusFinished && existing.Checksum != params.Checksum {
			return Record{}, fmt.Errorf("%w: stored=%s new=%s", ErrChecksumMismatch, existing.Checksum, params.Checksum)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE schema_migrations
             SET status = ?, checksum = ?, attempts = attempts + 1, started_at = ?, backup_path = ?, last_error = NULL
             WHERE id = ?`,
			StatusStarted, params.Checksum, params.StartedAt.UnixMilli(), nullableString(params.BackupPath), params.ID)
		if err != nil {
			return Record{}, fmt.Errorf("migrate: update started: %w", err)
		}
		if err := ensureRowsAffected(res, "update started"); err != nil {
			return Record{}, err
		}
	}
	return getRecord(ctx, tx, params.ID)
}

type FinishParams struct {
	ID         string
	FinishedAt time.Time
}

// MarkFinished marks a migration as finished and clears its error.
func (s *Store) MarkFinished(ctx context.Context, tx *sql.Tx, params FinishParams) (Record, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE schema_migrations SET status = ?, finished_at = ?, last_error = NULL WHERE id = ?`,
		StatusFinished, params.FinishedAt.UnixMilli(), params.ID)
	if err != nil {
		return Record{}, fmt.Errorf("migrate: mark finished: %w", err)
	}
	if err := ensureRowsAffected(res, "mark finished"); err != nil {
		return Record{}, err
	}
	return getRecord(ctx, tx, params.ID)
}

// SetError stores the last error message of a migration.
func (s *Store) SetError(ctx context.Context, tx *sql.Tx, id, lastError string) error {
	res, err := tx.ExecContext(ctx, `UPDATE schema_migrations SET last_error = ? WHERE id = ?`, lastError, id)
	if err != nil {
		return fmt.Errorf("migrate: set error: %w", err)
	}
	return ensureRowsAffected(res, "set error")
}

// GetRecord fetches the metadata entry without requiring a transaction.
func (s *Store) GetRecord(ctx context.Context, id string) (Record, error) {
	return getRecord(ctx, s.db, id)
}

// Records lists every metadata row ordered by id.
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, status, checksum, attempts, started_at, finished_at, last_error, backup_path
FROM schema_migrations
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("migrate: list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func getRecord(ctx context.Context, q querier, id string) (Record, error) {
	return scanRecord(q.QueryRowContext(ctx, selectRecord, id))
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func ensureRowsAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("migrate: %s rows affected: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("migrate: %s touched no rows", op)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec      Record
		started  int64
		finished sql.NullInt64
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Status,
		&rec.Checksum,
		&rec.Attempts,
		&started,
		&finished,
		&rec.LastError,
		&rec.BackupPath,
	); err != nil {
		return Record{}, err
	}
	rec.StartedAt = time.UnixMilli(started).UTC()
	if finished.Valid {
		t := time.UnixMilli(finished.Int64).UTC()
		rec.FinishedAt = &t
	}
	return rec, nil
}
