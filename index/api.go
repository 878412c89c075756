package index

// Index defines a nearest-neighbor index keyed by string ids. It enables
// building from (id, point) pairs, exact single nearest-neighbor queries, and
// binary serialization for persistence.
type Index interface {
	// Build constructs the index from the given ids and points.
	// ids and points must have the same length; all points share one dimension.
	Build(ids []string, points [][]float64) error

	// Nearest returns the id of the stored point closest to query and its
	// Euclidean distance. It returns ErrEmpty when nothing was built.
	Nearest(query []float64) (id string, distance float64, err error)

	// Len returns the number of indexed points.
	Len() int

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}
