package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"github.com/the-dev-tools/storyline/db/pkg/sqlc"
	"github.com/the-dev-tools/storyline/db/pkg/sqlitelocal"
	_ "modernc.org/sqlite"
)

// GetTestDB returns an isolated in-memory database with the schema applied.
func GetTestDB(ctx context.Context) (*sql.DB, error) {
	db, err := GetEmptyTestDB()
	if err != nil {
		return nil, err
	}
	if err := sqlc.CreateLocalTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// GetEmptyTestDB returns an isolated in-memory database without any tables.
func GetEmptyTestDB() (*sql.DB, error) {
	uniqueName := ulid.Make().String()
	connStr := fmt.Sprintf("file:testdb_%s?mode=memory&cache=shared&_txlock=immediate&_pragma=foreign_keys(1)", uniqueName)

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, err
	}
	// A shared-cache memory database disappears with its last connection and
	// reports table locks instead of waiting, so keep exactly one.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)
	return db, nil
}

// GetFileDB returns a WAL database file under dir with conns connections, for
// tests where writers must really contend for the lock.
func GetFileDB(ctx context.Context, dir string, conns int) (*sql.DB, error) {
	db, _, err := sqlitelocal.Open(ctx, sqlitelocal.Config{
		Path:         filepath.Join(dir, "testdb_"+ulid.Make().String()+".db"),
		MaxOpenConns: conns,
	})
	if err != nil {
		return nil, err
	}
	if err := sqlc.CreateLocalTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
