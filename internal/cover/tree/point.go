package tree

// Point is a float32 coordinate vector stored in the cover tree. Ordinal is the
// caller's position for the point and is assigned by Insert.
type Point struct {
	ordinal int32
	Vector  []float32
}

// Ordinal returns the insertion position of the point, or -1 for a query point.
func (p *Point) Ordinal() int32 {
	if p == nil {
		return -1
	}
	return p.ordinal
}

// NewPoint constructs a query point for the given vector.
func NewPoint(vector ...float32) *Point {
	return &Point{ordinal: -1, Vector: vector}
}

// NewPoint64 narrows a float64 vector into a query point.
func NewPoint64(vector []float64) *Point {
	v := make([]float32, len(vector))
	for i, x := range vector {
		v[i] = float32(x)
	}
	return NewPoint(v...)
}
