package dataset

import (
	"fmt"
	"math/rand/v2"
)

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate returns n points of dims integer coordinates drawn uniformly from
// [0, modulus).
func Generate(rng *rand.Rand, n, dims, modulus int) [][]float64 {
	if modulus <= 0 {
		modulus = 1
	}
	flat := make([]float64, n*dims)
	for i := range flat {
		flat[i] = float64(rng.IntN(modulus))
	}
	out := make([][]float64, n)
	for i := range out {
		out[i] = flat[i*dims : (i+1)*dims : (i+1)*dims]
	}
	return out
}

// GenerateQueries returns the dataset points followed by extra random points
// drawn like Generate, so every stored point is queried once.
func GenerateQueries(rng *rand.Rand, data [][]float64, extra, dims, modulus int) [][]float64 {
	out := make([][]float64, 0, len(data)+extra)
	for _, p := range data {
		out = append(out, append([]float64(nil), p...))
	}
	return append(out, Generate(rng, extra, dims, modulus)...)
}

// IDs returns sequential ids "p0", "p1", ... for n points.
func IDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i)
	}
	return ids
}

// Points pairs ids with coordinates.
func Points(ids []string, coords [][]float64) []Point {
	out := make([]Point, len(coords))
	for i := range coords {
		out[i] = Point{ID: ids[i], Coords: coords[i]}
	}
	return out
}
