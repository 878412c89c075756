package dataset

import (
	"database/sql"
	"fmt"
)

// DefaultTable is the point table used when no table is configured.
const DefaultTable = "points"

// TableDDL returns the DDL of a point table. The knn virtual table uses the
// same layout for its shadow tables.
func TableDDL(table string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    dataset_id TEXT NOT NULL,
    id         TEXT NOT NULL,
    coords     BLOB,
    PRIMARY KEY(dataset_id, id)
);
`, table)
}

// EnsureSchema creates the point table in the provided database if it does
// not already exist.
func EnsureSchema(db *sql.DB, table string) error {
	if table == "" {
		table = DefaultTable
	}
	_, err := db.Exec(TableDDL(table))
	return err
}
