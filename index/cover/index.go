package cover

import (
	"github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/index/bruteforce"
	"github.com/viant/sqlite-kdtree/internal/cover/tree"
	"github.com/viant/sqlite-kdtree/kdtree"
)

// Option configures the cover index.
type Option func(*Index)

// WithBase sets the cover tree level expansion factor.
func WithBase(base float32) Option {
	return func(i *Index) { i.base = base }
}

// Index answers nearest-neighbor queries with a float32 cover tree. The search
// runs in float32; the returned distance is recomputed in float64 against the
// stored coordinates of the match.
type Index struct {
	ids    []string
	points [][]float64
	dim    int
	base   float32
	tree   *tree.Tree
}

// New returns an empty cover index.
func New(opts ...Option) *Index {
	i := &Index{base: tree.DefaultBase}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Build inserts every point into a fresh cover tree.
func (i *Index) Build(ids []string, points [][]float64) error {
	dim, err := index.ValidateInput("cover", ids, points)
	if err != nil {
		return err
	}
	i.ids = append([]string(nil), ids...)
	i.points = make([][]float64, len(points))
	i.dim = dim
	i.tree = tree.NewTree(i.base)
	for j, p := range points {
		i.points[j] = append([]float64(nil), p...)
		i.tree.Insert(tree.NewPoint64(p))
	}
	return nil
}

// Len returns the number of stored points.
func (i *Index) Len() int { return len(i.points) }

// Nearest returns the closest point found by the cover tree.
func (i *Index) Nearest(query []float64) (string, float64, error) {
	if len(i.points) == 0 {
		return "", 0, index.ErrEmpty
	}
	if len(query) != i.dim {
		return "", 0, &kdtree.ErrDimensionMismatch{Expected: i.dim, Actual: len(query)}
	}
	nb, ok := i.tree.Nearest(tree.NewPoint64(query))
	if !ok {
		return "", 0, index.ErrEmpty
	}
	pos := nb.Point.Ordinal()
	return i.ids[pos], kdtree.Euclidean(query, i.points[pos]), nil
}

// MarshalBinary uses the brute-force format for persistence.
func (i *Index) MarshalBinary() ([]byte, error) {
	return bruteforce.Encode(i.ids, i.points), nil
}

// UnmarshalBinary loads the brute-force format and rebuilds the cover tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, points, err := bruteforce.Decode(data)
	if err != nil {
		return err
	}
	return i.Build(ids, points)
}
