package dataset

import (
	"context"
	"testing"

	"github.com/viant/sqlite-kdtree/engine"
)

// TestSQLOrderByKdL2 validates that kd_l2 can order a dataset by distance to a
// query point stored with EncodePoint.
func TestSQLOrderByKdL2(t *testing.T) {
	// Register functions before any connection work
	if err := engine.RegisterPointFunctions(nil); err != nil {
		t.Fatalf("RegisterPointFunctions: %v", err)
	}
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("engine.Open(:memory:) failed: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	points := Points(
		[]string{"a", "b", "c", "d", "e", "f"},
		[][]float64{{2, 3}, {5, 4}, {9, 6}, {4, 7}, {8, 1}, {7, 2}},
	)
	if _, err := store.Add(context.Background(), "ds", points); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	var id string
	var dist float64
	q := EncodePoint([]float64{9, 2})
	if err := db.QueryRow(`SELECT id, kd_l2(coords, ?) AS d FROM points WHERE dataset_id = 'ds' ORDER BY d LIMIT 1`, q).Scan(&id, &dist); err != nil {
		t.Fatalf("ORDER BY kd_l2 query failed: %v", err)
	}
	if id != "e" {
		t.Fatalf("nearest id = %s, want e", id)
	}
	if dist < 1.41421356 || dist > 1.41421357 {
		t.Fatalf("nearest distance = %v, want sqrt(2)", dist)
	}
}
