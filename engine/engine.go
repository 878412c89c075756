package engine

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// DefaultBusyTimeoutMs is applied by OpenFile.
const DefaultBusyTimeoutMs = 5000

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./db.sqlite". For in-memory
// databases, pass ":memory:".
func Open(dsn string) (*sql.DB, error) { return sql.Open("sqlite", dsn) }

// OpenFile opens a file database with WAL journaling and a busy timeout so the
// knn virtual tables can read from a second connection while a statement is
// in flight.
func OpenFile(path string) (*sql.DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(fmt.Sprintf(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=%d;`, DefaultBusyTimeoutMs)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("engine: pragma setup: %w", err)
	}
	return db, nil
}
