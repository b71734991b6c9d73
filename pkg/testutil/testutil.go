package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/the-dev-tools/storyline/db/pkg/dbtest"
	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/logger/mocklogger"
	"github.com/the-dev-tools/storyline/pkg/mutation"
	"github.com/the-dev-tools/storyline/pkg/ordering"
	"github.com/the-dev-tools/storyline/pkg/service/sadventure"
	"github.com/the-dev-tools/storyline/pkg/service/squest"
	"github.com/the-dev-tools/storyline/pkg/service/sstory"
)

type BaseDBQueries struct {
	Queries *gen.Queries
	DB      *sql.DB
	t       *testing.T
	ctx     context.Context
}

type BaseTestServices struct {
	DB         *sql.DB
	Hooks      *mutation.Hooks
	Logs       *mocklogger.MockHandler
	Stories    *sstory.Service
	Adventures *sadventure.Service
	Quests     *squest.Service
}

// CreateBaseDB opens an in-memory database closed when the test ends.
func CreateBaseDB(ctx context.Context, t *testing.T) *BaseDBQueries {
	t.Helper()
	db, err := dbtest.GetTestDB(ctx)
	if err != nil {
		t.Fatal(err)
	}
	base := &BaseDBQueries{Queries: gen.New(db), t: t, ctx: ctx, DB: db}
	t.Cleanup(base.Close)
	return base
}

// CreateFileDB opens a file database with conns connections, for tests
// where writers contend for the lock.
func CreateFileDB(ctx context.Context, t *testing.T, conns int) *BaseDBQueries {
	t.Helper()
	db, err := dbtest.GetFileDB(ctx, t.TempDir(), conns)
	if err != nil {
		t.Fatal(err)
	}
	base := &BaseDBQueries{Queries: gen.New(db), t: t, ctx: ctx, DB: db}
	t.Cleanup(base.Close)
	return base
}

// GetBaseServices wires the three services to one notification registry
// and a recording logger.
func (c BaseDBQueries) GetBaseServices() BaseTestServices {
	logger, logs := mocklogger.NewRecordingLogger()
	hooks := mutation.NewHooks(logger)
	ds := ordering.DefaultDescriptors()

	return BaseTestServices{
		DB:         c.DB,
		Hooks:      hooks,
		Logs:       logs,
		Stories:    sstory.New(c.DB, ds.MustGet("story"), hooks, logger),
		Adventures: sadventure.New(c.DB, ds.MustGet("adventure"), hooks, logger),
		Quests:     squest.New(c.DB, ds.MustGet("quest"), hooks, logger),
	}
}

func (b BaseDBQueries) Close() {
	if err := b.DB.Close(); err != nil {
		b.t.Error(err)
	}
}

func Ptr[T any](v T) *T {
	return &v
}

func AssertFatal[c comparable](t *testing.T, expected, got c) {
	t.Helper()
	if got != expected {
		t.Fatalf("got %v, expected %v", got, expected)
	}
}

func Assert[c comparable](t *testing.T, expected, got c) {
	t.Helper()
	if got != expected {
		t.Errorf("got %v, expected %v", got, expected)
	}
}
