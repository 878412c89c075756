package kdtree

import "math"

// Neighbor is the result of a nearest-neighbor query.
type Neighbor struct {
	Ref      PointRef
	Distance float64
}

// Index is a built k-d tree. It owns its node arena and references an immutable
// Store. It is immutable after Build until Release.
type Index struct {
	store    *Store
	arena    *arena
	root     handle
	height   int
	created  int
	released bool
}

// Store returns the backing store.
func (ix *Index) Store() *Store { return ix.store }

// Len returns the number of indexed points.
func (ix *Index) Len() int { return ix.arena.len() }

// Dims returns the point dimension.
func (ix *Index) Dims() int { return ix.store.Dims() }

// Height returns the number of levels in the tree; 0 for an empty index.
func (ix *Index) Height() int { return ix.height }

// Created returns the number of nodes allocated by Build (or restored by
// UnmarshalBinary).
func (ix *Index) Created() int { return ix.created }

// Empty reports whether the index holds no points.
func (ix *Index) Empty() bool { return ix.root == nilHandle }

// Nearest returns the stored point closest to query and its Euclidean distance.
// It returns ErrEmptyIndex for an empty index and *ErrDimensionMismatch when
// len(query) differs from Dims.
func (ix *Index) Nearest(query []float64) (Neighbor, error) {
	return ix.NearestWithin(query, math.Inf(1))
}

// NearestWithin is Nearest with an initial pruning bound. The result is exact
// whenever the true nearest distance is below bound; otherwise it is the best
// candidate visited.
func (ix *Index) NearestWithin(query []float64, bound float64) (Neighbor, error) {
	if ix.released {
		return Neighbor{}, ErrReleased
	}
	if ix.root == nilHandle {
		return Neighbor{}, ErrEmptyIndex
	}
	if len(query) != ix.store.dims {
		return Neighbor{}, &ErrDimensionMismatch{Expected: ix.store.dims, Actual: len(query)}
	}
	s := &searcher{
		store: ix.store,
		nodes: ix.arena.nodes,
		query: query,
		stack: make([]handle, 0, ix.height),
	}
	h, dist, _ := s.nearest(ix.root, bound)
	return Neighbor{Ref: ix.store.Ref(int(ix.arena.nodes[h].pos)), Distance: dist}, nil
}

// Release frees the whole node graph in one pass and returns the number of
// nodes released. The index answers ErrReleased afterwards.
func (ix *Index) Release() int {
	if ix.released {
		return 0
	}
	ix.released = true
	ix.root = nilHandle
	ix.height = 0
	return ix.arena.release()
}
