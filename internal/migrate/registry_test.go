package migrate

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndListOrdersByID(t *testing.T) {
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	idA, idB, idC := newID(), newID(), newID()
	for _, id := range []string{idC, idA, idB} {
		require.NoError(t, Register(Migration{ID: id, Checksum: "sum", Description: "test", Apply: funcStub}))
	}

	migrations := List()
	require.Len(t, migrations, 3)
	assert.Equal(t, []string{idA, idB, idC}, []string{migrations[0].ID, migrations[1].ID, migrations[2].ID})
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	id := newID()
	require.NoError(t, Register(Migration{ID: id, Checksum: "sum", Description: "test", Apply: funcStub}))
	assert.ErrorIs(t, Register(Migration{ID: id, Checksum: "sum", Description: "test", Apply: funcStub}), ErrDuplicateID)
}

func TestRegisterValidates(t *testing.T) {
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	check := func(context.Context, *sql.DB) error { return nil }
	tests := []struct {
		name string
		mig  Migration
	}{
		{"empty id", Migration{Checksum: "sum", Description: "d", Apply: funcStub}},
		{"non ulid id", Migration{ID: "not-a-ulid", Checksum: "sum", Description: "d", Apply: funcStub}},
		{"missing checksum", Migration{ID: newID(), Description: "d", Apply: funcStub}},
		{"blank description", Migration{ID: newID(), Checksum: "sum", Description: "  ", Apply: funcStub}},
		{"no hooks", Migration{ID: newID(), Checksum: "sum", Description: "d"}},
		{"backup without apply", Migration{ID: newID(), Checksum: "sum", Description: "d", Validate: check, RequiresBackup: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Register(tt.mig), ErrInvalidMigration)
		})
	}
	assert.Empty(t, List())

	require.NoError(t, Register(Migration{ID: newID(), Checksum: "sum", Description: "validate only", Validate: check}))
	assert.Len(t, List(), 1)
}
