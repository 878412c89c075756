package gonum

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/index/bruteforce"
	kd "github.com/viant/sqlite-kdtree/kdtree"
)

// medianSamples bounds the number of random values sampled when choosing a
// pivot.
const medianSamples = 100

var (
	_ kdtree.Interface  = points{}
	_ kdtree.Comparable = point{}
	_ index.Index       = (*Index)(nil)
)

// point is a stored coordinate vector carrying its build-order position.
type point struct {
	pos    int
	coords []float64
}

func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coords[d] - c.(point).coords[d]
}

func (p point) Dims() int { return len(p.coords) }

// Distance returns the squared Euclidean distance, as gonum expects.
func (p point) Distance(c kdtree.Comparable) float64 {
	q := c.(point)
	var sum float64
	for dim, v := range p.coords {
		d := v - q.coords[dim]
		sum += d * d
	}
	return sum
}

type points []point

func (p points) Index(i int) kdtree.Comparable         { return p[i] }
func (p points) Len() int                              { return len(p) }
func (p points) Pivot(d kdtree.Dim) int                { return plane{points: p, Dim: d}.Pivot() }
func (p points) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane pivots points on one dimension.
type plane struct {
	kdtree.Dim
	points
}

func (p plane) Less(i, j int) bool { return p.points[i].coords[p.Dim] < p.points[j].coords[p.Dim] }
func (p plane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfRandoms(p, medianSamples))
}
func (p plane) Slice(start, end int) kdtree.SortSlicer { p.points = p.points[start:end]; return p }
func (p plane) Swap(i, j int)                          { p.points[i], p.points[j] = p.points[j], p.points[i] }

// Index answers nearest-neighbor queries with gonum's spatial k-d tree. It is
// used as an independent oracle for the k-d tree in this module.
type Index struct {
	ids    []string
	points [][]float64
	dim    int
	tree   *kdtree.Tree
}

// Build copies the points and builds a gonum tree over them.
func (i *Index) Build(ids []string, pts [][]float64) error {
	dim, err := index.ValidateInput("gonum", ids, pts)
	if err != nil {
		return err
	}
	i.ids = append([]string(nil), ids...)
	i.points = make([][]float64, len(pts))
	list := make(points, len(pts))
	for j, p := range pts {
		i.points[j] = append([]float64(nil), p...)
		list[j] = point{pos: j, coords: i.points[j]}
	}
	i.dim = dim
	i.tree = nil
	if len(list) > 0 {
		// New reorders list; positions travel with the points.
		i.tree = kdtree.New(list, false)
	}
	return nil
}

// Len returns the number of stored points.
func (i *Index) Len() int { return len(i.points) }

// Nearest returns the closest point and its Euclidean distance.
func (i *Index) Nearest(query []float64) (string, float64, error) {
	pos, dist, err := i.NearestPosition(query)
	if err != nil {
		return "", 0, err
	}
	return i.ids[pos], dist, nil
}

// NearestPosition is Nearest reporting the build-order position of the match.
func (i *Index) NearestPosition(query []float64) (int, float64, error) {
	if i.tree == nil {
		return -1, 0, index.ErrEmpty
	}
	if len(query) != i.dim {
		return -1, 0, &kd.ErrDimensionMismatch{Expected: i.dim, Actual: len(query)}
	}
	got, squared := i.tree.Nearest(point{pos: -1, coords: query})
	if got == nil {
		return -1, 0, index.ErrEmpty
	}
	return got.(point).pos, math.Sqrt(squared), nil
}

// MarshalBinary uses the brute-force format; the tree is rebuilt on load.
func (i *Index) MarshalBinary() ([]byte, error) {
	return bruteforce.Encode(i.ids, i.points), nil
}

// UnmarshalBinary loads the brute-force format and rebuilds the tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, pts, err := bruteforce.Decode(data)
	if err != nil {
		return err
	}
	return i.Build(ids, pts)
}
