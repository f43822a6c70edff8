//go:build cgo && sqlite_fts5

package sqlite

// Build or test with -tags sqlite_fts5 (and CGO_ENABLED=1) to use
// mattn/go-sqlite3:
//
//	go test -tags sqlite_fts5 ./internal/db/sqlite/

import (
	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
)

func init() {
	preferredDrivers = []string{"sqlite3", "sqlite"}
}
