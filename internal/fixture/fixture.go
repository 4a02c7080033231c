// Package fixture scripts real SQLite3 database files for
// engine-level tests, using the pure-Go modernc.org/sqlite driver so
// the resulting pages, B-trees and overflow chains are genuine
// SQLite output rather than hand-built bytes. This project's own
// pager never writes; fixture is the only writer anywhere in the
// module, and it only runs from other packages' tests.
package fixture

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Build opens a fresh database file under dir, runs each of statements
// against it via database/sql, and returns the file's path. Statements
// run in order inside one connection, so later DDL/DML can depend on
// earlier rows.
func Build(dir string, statements ...string) (string, error) {
	path := filepath.Join(dir, "fixture.db")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", fmt.Errorf("fixture_open: %w", err)
	}
	defer db.Close()

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return "", fmt.Errorf("fixture_exec %q: %w", stmt, err)
		}
	}
	return path, nil
}

// LongText returns a deterministic string of n bytes, long enough to
// force an overflow chain once it no longer fits in a cell's local
// payload budget on a typical page size.
func LongText(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[i%len(alphabet)]
	}
	return string(b)
}
