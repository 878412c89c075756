package dataset

import (
	"context"
	"testing"

	"github.com/viant/sqlite-kdtree/engine"
)

// TestSQLiteStore_AddLoadRemove exercises inserting points, loading a dataset
// in insertion order and removing a point.
func TestSQLiteStore_AddLoadRemove(t *testing.T) {
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
	ctx := context.Background()

	points := []Point{
		{ID: "a", Coords: []float64{2, 3}},
		{ID: "b", Coords: []float64{5, 4}},
		{Coords: []float64{9, 6}},
	}
	ids, err := store.Add(ctx, "ds1", points)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] == "" {
		t.Fatalf("Add returned ids %v", ids)
	}
	if _, err := store.Add(ctx, "ds2", []Point{{ID: "z", Coords: []float64{1, 1}}}); err != nil {
		t.Fatalf("Add ds2 failed: %v", err)
	}

	loaded, err := store.Load(ctx, "ds1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("Load returned %d points, want 3", len(loaded))
	}
	if loaded[1].ID != "b" || loaded[1].Coords[0] != 5 || loaded[1].Coords[1] != 4 {
		t.Fatalf("unexpected point %+v", loaded[1])
	}

	if err := store.Remove(ctx, "ds1", "b"); err != nil {
		t.Fatalf("Remove(b) failed: %v", err)
	}
	loaded, err = store.Load(ctx, "ds1")
	if err != nil {
		t.Fatalf("Load after remove failed: %v", err)
	}
	for _, p := range loaded {
		if p.ID == "b" {
			t.Fatalf("expected b to be removed")
		}
	}

	datasets, err := store.Datasets(ctx)
	if err != nil {
		t.Fatalf("Datasets failed: %v", err)
	}
	if len(datasets) != 2 || datasets[0] != "ds1" || datasets[1] != "ds2" {
		t.Fatalf("Datasets = %v", datasets)
	}
}

func TestSQLiteStore_RejectsMixedDimensions(t *testing.T) {
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("engine.Open(:memory:) failed: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	store, err := NewSQLiteStore(db, WithTable("mixed"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	_, err = store.Add(context.Background(), "ds", []Point{{ID: "a", Coords: []float64{1, 2}}, {ID: "b", Coords: []float64{1}}})
	if err == nil {
		t.Fatalf("expected dimension error")
	}
	loaded, err := store.Load(context.Background(), "ds")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected rollback, got %d points", len(loaded))
	}
}
