package knnutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sqlite-kdtree/dataset"
	"github.com/viant/sqlite-kdtree/knn"
)

// DefaultColumn is the visible id column declared by a knn table when the
// CREATE VIRTUAL TABLE statement names none.
const DefaultColumn = "point_id"

// ShadowTableName derives the shadow table name of a knn virtual table.
//
// For example:
//
//	ShadowTableName("pts") == "_knn_pts".
func ShadowTableName(virtualTable string) string {
	return knn.ShadowTableName(virtualTable)
}

// UpsertShadowPoint inserts or updates one point of a knn shadow table.
//
// Table names are interpolated into SQL; callers should ensure that
// shadowTable is trusted.
func UpsertShadowPoint(ctx context.Context, db *sql.DB, shadowTable, datasetID, id string, coords []float64) error {
	if db == nil {
		return fmt.Errorf("knnutil: db is nil")
	}
	if len(coords) == 0 {
		return fmt.Errorf("knnutil: point %q has no coordinates", id)
	}
	stmt := fmt.Sprintf(`
INSERT INTO %s(dataset_id, id, coords)
VALUES (?, ?, ?)
ON CONFLICT(dataset_id, id) DO UPDATE SET
  coords = excluded.coords`, shadowTable)
	_, err := db.ExecContext(ctx, stmt, datasetID, id, dataset.EncodePoint(coords))
	return err
}

// MatchNearest runs a MATCH query against a knn virtual table and returns the
// id and distance of the nearest point. ok is false when the dataset is empty.
func MatchNearest(ctx context.Context, db *sql.DB, virtualTable, column, datasetID string, query []float64) (id string, distance float64, ok bool, err error) {
	if db == nil {
		return "", 0, false, fmt.Errorf("knnutil: db is nil")
	}
	if column == "" {
		column = DefaultColumn
	}
	q := fmt.Sprintf("SELECT %s, distance FROM %s WHERE dataset_id = ? AND %s MATCH ?", column, virtualTable, column)
	err = db.QueryRowContext(ctx, q, datasetID, dataset.EncodePoint(query)).Scan(&id, &distance)
	if err == sql.ErrNoRows {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	return id, distance, true, nil
}
