package knn

import (
	"database/sql"
	"testing"

	"github.com/viant/sqlite-kdtree/dataset"
)

func persistedCount(t *testing.T, db *sql.DB, shadow, datasetID string) int {
	t.Helper()
	var cnt int
	if err := db.QueryRow(`SELECT COUNT(*) FROM `+StorageTable+` WHERE shadow_table_name = ? AND dataset_id = ? AND "index" IS NOT NULL`, shadow, datasetID).Scan(&cnt); err != nil {
		t.Fatalf("count %s failed: %v", StorageTable, err)
	}
	return cnt
}

// TestShadowChangeInvalidatesIndex verifies that shadow table writes delete the
// persisted index row, causing the next MATCH to rebuild it.
func TestShadowChangeInvalidatesIndex(t *testing.T) {
	db := openKnnDB(t, "knn_iv", "point_id")
	const shadow = "main._knn_knn_iv"
	insertPoints(t, db, "_knn_knn_iv", "ds", []string{"d1", "d2"}, [][]float64{{1, 0}, {0, 1}})
	insertPoints(t, db, "_knn_knn_iv", "keep", []string{"k1"}, [][]float64{{5, 5}})

	if id, _, ok := matchNearest(t, db, "knn_iv", "ds", "[1,0]"); !ok || id != "d1" {
		t.Fatalf("first MATCH: got %q (found=%v), want d1", id, ok)
	}
	if _, _, ok := matchNearest(t, db, "knn_iv", "keep", "[0,0]"); !ok {
		t.Fatalf("MATCH on dataset keep returned no rows")
	}
	if cnt := persistedCount(t, db, shadow, "ds"); cnt != 1 {
		t.Fatalf("expected 1 persisted index row, got %d", cnt)
	}

	// A closer point lands in ds: only that dataset's index is dropped.
	insertPoints(t, db, "_knn_knn_iv", "ds", []string{"d3"}, [][]float64{{0.9, 0.1}})
	if cnt := persistedCount(t, db, shadow, "ds"); cnt != 0 {
		t.Fatalf("expected persisted index to be invalidated (0), got %d", cnt)
	}
	if cnt := persistedCount(t, db, shadow, "keep"); cnt != 1 {
		t.Fatalf("expected index of dataset keep to survive, got %d", cnt)
	}

	id, _, ok := matchNearest(t, db, "knn_iv", "ds", dataset.EncodePoint([]float64{0.95, 0.05}))
	if !ok || id != "d3" {
		t.Fatalf("MATCH after insert: got %q (found=%v), want d3", id, ok)
	}
	if cnt := persistedCount(t, db, shadow, "ds"); cnt != 1 {
		t.Fatalf("expected 1 persisted index row after rebuild, got %d", cnt)
	}

	if _, err := db.Exec(`DELETE FROM _knn_knn_iv WHERE dataset_id = 'ds' AND id = 'd3'`); err != nil {
		t.Fatalf("delete d3 failed: %v", err)
	}
	if cnt := persistedCount(t, db, shadow, "ds"); cnt != 0 {
		t.Fatalf("expected delete to invalidate the index, got %d", cnt)
	}
	if id, _, ok := matchNearest(t, db, "knn_iv", "ds", "[0.95,0.05]"); !ok || id != "d1" {
		t.Fatalf("MATCH after delete: got %q (found=%v), want d1", id, ok)
	}
}
