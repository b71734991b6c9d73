package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc"
	"github.com/the-dev-tools/storyline/internal/migrate"
)

// MigrationBaselineID is the ULID for the baseline tables migration.
const MigrationBaselineID = "01JZ8Q3K5V7XG2M4N6P8R0T1W3"

// MigrationBaselineChecksum is a stable hash of this migration.
const MigrationBaselineChecksum = "sha256:storyline-baseline-v1"

var baselineTables = []string{"story", "adventure", "quest"}

func init() {
	if err := migrate.Register(migrate.Migration{
		ID:          MigrationBaselineID,
		Checksum:    MigrationBaselineChecksum,
		Description: "Create story, adventure and quest tables",
		Apply:       applyBaseline,
		Validate:    validateBaseline,
	}); err != nil {
		panic("failed to register baseline migration: " + err.Error())
	}
}

// applyBaseline creates tables and plain indexes. The unique order indexes
// come with the next migration, which first checks existing data.
func applyBaseline(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range sqlc.Schema() {
		if strings.Contains(strings.ToUpper(stmt), "CREATE UNIQUE INDEX") {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("baseline: %w", err)
		}
	}
	return nil
}

func validateBaseline(ctx context.Context, db *sql.DB) error {
	for _, table := range baselineTables {
		if err := requireObject(ctx, db, "table", table); err != nil {
			return err
		}
	}
	return nil
}

func requireObject(ctx context.Context, db *sql.DB, kind, name string) error {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?`, kind, name).Scan(&count)
	if err != nil {
		return fmt.Errorf("look up %s %s: %w", kind, name, err)
	}
	if count == 0 {
		return fmt.Errorf("%s %s not found", kind, name)
	}
	return nil
}
