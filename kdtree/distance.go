package kdtree

import "math"

// Euclidean returns the L2 distance between a and b. Both must have the same length.
func Euclidean(a, b []float64) float64 {
	return math.Sqrt(squaredEuclidean(a, b))
}

func squaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
