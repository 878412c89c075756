package tree

// Neighbor describes a candidate returned by a search.
type Neighbor struct {
	Point    *Point
	Distance float32
}
