package knnutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sqlite-kdtree/dataset"
)

// Index provides a point-oriented API on top of a knn virtual table and its
// shadow table, scoped to one dataset.
type Index struct {
	DB          *sql.DB
	VirtualName string
	ShadowName  string
	Column      string
	DatasetID   string
}

// NewIndex constructs an Index for a given knn virtual table name.
//
// The shadow table name is derived using ShadowTableName. The caller is
// responsible for having created the virtual table; the shadow table is
// created by knn.EnsureShadow or the first query.
func NewIndex(db *sql.DB, virtualTable, datasetID string) (*Index, error) {
	if db == nil {
		return nil, fmt.Errorf("knnutil: db is nil")
	}
	return &Index{
		DB:          db,
		VirtualName: virtualTable,
		ShadowName:  ShadowTableName(virtualTable),
		Column:      DefaultColumn,
		DatasetID:   datasetID,
	}, nil
}

// Match is a nearest-neighbor hit.
type Match struct {
	ID       string
	Distance float64
	Coords   []float64
}

// UpsertPoints upserts the provided points into the shadow table. Triggers
// installed by the knn module drop the persisted index of the dataset.
func (ix *Index) UpsertPoints(ctx context.Context, points []dataset.Point) error {
	for _, p := range points {
		if err := UpsertShadowPoint(ctx, ix.DB, ix.ShadowName, ix.DatasetID, p.ID, p.Coords); err != nil {
			return err
		}
	}
	return nil
}

// DeletePoints removes points with the given ids from the shadow table.
func (ix *Index) DeletePoints(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if ix.DB == nil {
		return fmt.Errorf("knnutil: DB is nil on Index")
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE dataset_id = ? AND id = ?", ix.ShadowName)
	for _, id := range ids {
		if _, err := ix.DB.ExecContext(ctx, stmt, ix.DatasetID, id); err != nil {
			return err
		}
	}
	return nil
}

// Nearest returns the stored point closest to query, with its coordinates
// loaded from the shadow table. ok is false when the dataset holds no points.
func (ix *Index) Nearest(ctx context.Context, query []float64) (Match, bool, error) {
	id, dist, ok, err := MatchNearest(ctx, ix.DB, ix.VirtualName, ix.Column, ix.DatasetID, query)
	if err != nil || !ok {
		return Match{}, ok, err
	}
	var blob []byte
	stmt := fmt.Sprintf("SELECT coords FROM %s WHERE dataset_id = ? AND id = ?", ix.ShadowName)
	if err := ix.DB.QueryRowContext(ctx, stmt, ix.DatasetID, id).Scan(&blob); err != nil {
		return Match{}, false, err
	}
	coords, err := dataset.DecodePoint(blob)
	if err != nil {
		return Match{}, false, err
	}
	return Match{ID: id, Distance: dist, Coords: coords}, true, nil
}
