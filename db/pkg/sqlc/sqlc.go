package sqlc

import (
	"context"
	"database/sql"
	_ "embed"
	"regexp"
	"strings"

	"github.com/pingcap/log"
)

//go:embed schema.sql
var ddl string

var createIndexRegex = regexp.MustCompile(`(?i)\bCREATE\s+(UNIQUE\s+)?INDEX\s+`)

// Schema returns the statements of schema.sql rewritten to be idempotent.
func Schema() []string {
	modified := strings.ReplaceAll(ddl, "CREATE TABLE ", "CREATE TABLE IF NOT EXISTS ")
	modified = createIndexRegex.ReplaceAllStringFunc(modified, func(match string) string {
		if strings.Contains(strings.ToUpper(match), "UNIQUE") {
			return "CREATE UNIQUE INDEX IF NOT EXISTS "
		}
		return "CREATE INDEX IF NOT EXISTS "
	})

	var statements []string
	for _, stmt := range strings.Split(modified, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}

// CreateLocalTables creates every table and index of schema.sql that does not
// exist yet.
func CreateLocalTables(ctx context.Context, db *sql.DB) error {
	for _, stmt := range Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				log.Warn("schema object already exists, ignoring: " + err.Error())
				continue
			}
			return err
		}
	}
	return nil
}
