package migrate

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/the-dev-tools/storyline/pkg/idwrap"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Migration)

	ErrDuplicateID      = errors.New("migrate: duplicate migration id")
	ErrInvalidMigration = errors.New("migrate: invalid migration")
)

// Register adds a migration to the in-process registry. Migration packages
// call it from init, so a rejected migration stops the binary at start up.
func Register(m Migration) error {
	if err := validateMigration(m); err != nil {
		return err
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[m.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
	}
	registry[m.ID] = m
	return nil
}

// List returns the registered migrations. ULIDs sort by creation time, so
// the order is the order they were written in.
func List() []Migration {
	registryMu.RLock()
	out := make([]Migration, 0, len(registry))
	for _, m := range registry {
		out = append(out, m)
	}
	registryMu.RUnlock()

	slices.SortFunc(out, func(a, b Migration) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// ResetForTesting clears the registry.
func ResetForTesting() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Migration)
}

func validateMigration(m Migration) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w %q: %s", ErrInvalidMigration, m.ID, fmt.Sprintf(format, args...))
	}

	if _, err := idwrap.NewText(m.ID); err != nil {
		return invalid("id must be a ULID: %v", err)
	}
	if strings.TrimSpace(m.Checksum) == "" {
		return invalid("checksum is required")
	}
	// `storyline migrate --pending` lists descriptions.
	if strings.TrimSpace(m.Description) == "" {
		return invalid("description is required")
	}
	if m.Apply == nil && m.Validate == nil {
		return invalid("neither Apply nor Validate is set")
	}
	if m.Apply == nil && m.RequiresBackup {
		return invalid("a validate-only migration has nothing to back up")
	}
	return nil
}
