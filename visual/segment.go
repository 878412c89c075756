package visual

import (
	"errors"

	"github.com/viant/sqlite-kdtree/kdtree"
)

// ErrNot2D is returned for indices whose points are not two-dimensional.
var ErrNot2D = errors.New("visual: only 2-D indices can be exported")

// Range is a closed interval; Normalize orders its bounds.
type Range [2]float64

// Normalize returns r with the lower bound first.
func (r Range) Normalize() Range {
	if r[0] > r[1] {
		return Range{r[1], r[0]}
	}
	return r
}

// Region is the axis-aligned rectangle drawn around the root.
type Region struct {
	X Range
	Y Range
}

// Segment is a node's splitting line clipped to the region the node owns.
// Region is the rectangle inherited from the node's ancestors.
type Segment struct {
	Index  int // point position in the store
	Depth  int
	Split  int
	Point  [2]float64
	From   [2]float64
	To     [2]float64
	Region Region
}

// Segments returns one segment per node in pre-order. An empty index yields
// no segments.
func Segments(ix *kdtree.Index, region Region) ([]Segment, error) {
	if ix.Len() > 0 && ix.Dims() != 2 {
		return nil, ErrNot2D
	}
	root, ok := ix.Root()
	if !ok {
		return nil, nil
	}
	out := make([]Segment, 0, ix.Len())
	collect(root, Region{X: region.X.Normalize(), Y: region.Y.Normalize()}, 0, &out)
	return out, nil
}

func collect(n kdtree.Node, region Region, depth int, out *[]Segment) {
	ref := n.Ref()
	x, y := ref.Coord(0), ref.Coord(1)
	seg := Segment{Index: ref.Index(), Depth: depth, Split: n.Split(), Point: [2]float64{x, y}, Region: region}
	left, right := region, region
	if n.Split() == 0 {
		seg.From = [2]float64{x, region.Y[0]}
		seg.To = [2]float64{x, region.Y[1]}
		left.X[1], right.X[0] = x, x
	} else {
		seg.From = [2]float64{region.X[0], y}
		seg.To = [2]float64{region.X[1], y}
		left.Y[1], right.Y[0] = y, y
	}
	*out = append(*out, seg)
	if child, ok := n.Left(); ok {
		collect(child, left, depth+1, out)
	}
	if child, ok := n.Right(); ok {
		collect(child, right, depth+1, out)
	}
}
