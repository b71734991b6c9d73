package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/the-dev-tools/storyline/internal/migrate"
	"github.com/the-dev-tools/storyline/pkg/ordering"
)

// MigrationOrderIndexesID is the ULID for the unique order index migration.
const MigrationOrderIndexesID = "01JZ8Q4A2C6E8G0J2K4M6P8R0S"

// MigrationOrderIndexesChecksum is a stable hash of this migration.
const MigrationOrderIndexesChecksum = "sha256:storyline-order-indexes-v1"

// ErrOrderingViolations is returned by the precheck when existing rows are
// not densely ordered. The data has to be repaired before the indexes can be
// created.
var ErrOrderingViolations = errors.New("existing rows violate the ordering invariant")

func init() {
	if err := migrate.Register(migrate.Migration{
		ID:          MigrationOrderIndexesID,
		Checksum:    MigrationOrderIndexesChecksum,
		Description: "Enforce unique order indexes among active siblings",
		Precheck:    precheckOrderIndexes,
		Apply:       applyOrderIndexes,
		Validate:    validateOrderIndexes,
	}); err != nil {
		panic("failed to register order index migration: " + err.Error())
	}
}

func orderIndexName(d ordering.Descriptor) string {
	return d.Table + "_num_active_idx"
}

func orderIndexDDL(d ordering.Descriptor) string {
	columns := fmt.Sprintf("%q", d.OrderColumn)
	if d.Grouped() {
		columns = fmt.Sprintf("%q, %q", d.ParentColumn, d.OrderColumn)
	}
	return fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %q ON %q (%s) WHERE %q = 1`,
		orderIndexName(d), d.Table, columns, d.ActiveColumn)
}

func precheckOrderIndexes(ctx context.Context, db *sql.DB) error {
	var found []string
	for _, d := range ordering.DefaultDescriptors() {
		violations, err := ordering.NewSQL(d, db, nil).Audit(ctx)
		if err != nil {
			return fmt.Errorf("audit %s: %w", d.Entity, err)
		}
		for _, v := range violations {
			found = append(found, v.String())
		}
	}
	if len(found) > 0 {
		return fmt.Errorf("%w: %s", ErrOrderingViolations, strings.Join(found, "; "))
	}
	return nil
}

func applyOrderIndexes(ctx context.Context, tx *sql.Tx) error {
	for _, d := range ordering.DefaultDescriptors() {
		if _, err := tx.ExecContext(ctx, orderIndexDDL(d)); err != nil {
			return fmt.Errorf("create %s: %w", orderIndexName(d), err)
		}
	}
	return nil
}

func validateOrderIndexes(ctx context.Context, db *sql.DB) error {
	for _, d := range ordering.DefaultDescriptors() {
		if err := requireObject(ctx, db, "index", orderIndexName(d)); err != nil {
			return err
		}
	}
	return nil
}
