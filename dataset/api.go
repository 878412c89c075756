package dataset

import "context"

// Point is a stored, id-keyed point of one dataset.
type Point struct {
	// ID is the logical identifier of the point. When empty on insert, the
	// store generates one.
	ID string

	// Coords holds the point coordinates; every point of a dataset shares the
	// same dimension.
	Coords []float64
}

// Store defines the durable point store consumed by the nearest-neighbor
// surfaces of this module.
type Store interface {
	// Add inserts or replaces points of a dataset and returns their IDs.
	Add(ctx context.Context, datasetID string, points []Point) ([]string, error)

	// Load returns every point of a dataset in insertion order.
	Load(ctx context.Context, datasetID string) ([]Point, error)

	// Remove deletes the points with the given IDs from a dataset.
	Remove(ctx context.Context, datasetID string, ids ...string) error
}

// Split separates points into parallel id and coordinate slices, the shape
// index.Index.Build expects.
func Split(points []Point) ([]string, [][]float64) {
	ids := make([]string, len(points))
	coords := make([][]float64, len(points))
	for i, p := range points {
		ids[i] = p.ID
		coords[i] = p.Coords
	}
	return ids, coords
}
