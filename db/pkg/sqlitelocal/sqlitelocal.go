package sqlitelocal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrDBPathNotFound = errors.New("db path not found")

const DefaultBusyTimeout = 5 * time.Second

type Config struct {
	// Path of the database file. Missing parent directories are created.
	Path        string
	BusyTimeout time.Duration
	// MaxOpenConns defaults to 1.
	MaxOpenConns int
}

// DSN builds the modernc connection string for cfg. Transactions start with
// BEGIN IMMEDIATE so a writer takes the database lock before its first read.
func DSN(cfg Config) string {
	timeout := cfg.BusyTimeout
	if timeout <= 0 {
		timeout = DefaultBusyTimeout
	}
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", timeout.Milliseconds()))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Set("_txlock", "immediate")
	return "file:" + cfg.Path + "?" + params.Encode()
}

// Open opens the database described by cfg and checks that it is reachable.
// The returned func closes it.
func Open(ctx context.Context, cfg Config) (*sql.DB, func(), error) {
	if cfg.Path == "" {
		return nil, nil, ErrDBPathNotFound
	}

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", DSN(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	conns := cfg.MaxOpenConns
	if conns <= 0 {
		conns = 1
	}
	db.SetMaxOpenConns(conns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, func() { _ = db.Close() }, nil
}
