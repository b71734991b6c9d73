package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const backupSuffix = ".sqlite"

// BackupManager snapshots the database before a migration with
// VACUUM INTO, which yields a consistent copy even while WAL is active.
type BackupManager struct {
	BackupDir string
	Retain    int
}

// Create writes a snapshot named after the time and the migration id and
// returns its path.
func (b *BackupManager) Create(ctx context.Context, db *sql.DB, migrationID string, now time.Time) (string, error) {
	if b == nil || b.BackupDir == "" {
		return "", errors.New("backup manager not configured")
	}
	if err := os.MkdirAll(b.BackupDir, 0o750); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", now.UTC().Format("20060102T150405.000Z"), migrationID, backupSuffix)
	target := filepath.Join(b.BackupDir, name)
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", target); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", target, err)
	}
	return target, nil
}

// Trim keeps the Retain newest snapshots. Names sort by creation time.
func (b *BackupManager) Trim() error {
	if b == nil || b.BackupDir == "" || b.Retain <= 0 {
		return nil
	}

	entries, err := os.ReadDir(b.BackupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read backup dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), backupSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) <= b.Retain {
		return nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	var errs []error
	for _, name := range names[b.Retain:] {
		if err := os.Remove(filepath.Join(b.BackupDir, name)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
