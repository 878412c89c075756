package kdtree

import (
	"cmp"
	"math"
	"slices"
)

// builder partitions store positions into an arena-backed tree. work is the
// only slice that gets reordered.
type builder struct {
	store  *Store
	arena  *arena
	work   []int32
	height int
}

// Build constructs an index over every point of store. An empty store yields a
// valid empty index. Build never fails and never mutates store.
func Build(store *Store) *Index {
	n := store.Len()
	ix := &Index{store: store, arena: newArena(n), root: nilHandle}
	if n == 0 {
		return ix
	}
	b := &builder{store: store, arena: ix.arena, work: make([]int32, n)}
	for i := range b.work {
		b.work[i] = int32(i)
	}
	ix.root = b.build(0, n, -1, 1)
	ix.height = b.height
	ix.created = ix.arena.len()
	return ix
}

// build creates the subtree for work[lo:hi]. parentSplit is -1 at the root.
func (b *builder) build(lo, hi, parentSplit, depth int) handle {
	size := hi - lo
	if size <= 0 {
		return nilHandle
	}
	if depth > b.height {
		b.height = depth
	}

	part := b.work[lo:hi]
	if size > 1 && b.identical(part) {
		return b.chain(part, parentSplit, depth)
	}
	split := b.splitDimension(part)
	if size == 1 && parentSplit >= 0 && split == parentSplit {
		split = (split + 1) % b.store.dims
	}
	b.sortBy(part, split)

	// Median, moved left past equal coordinates so the left subtree is strictly less.
	mid := size / 2
	pivot := b.store.coord(int(part[mid]), split)
	for mid > 0 && b.store.coord(int(part[mid-1]), split) == pivot {
		mid--
	}

	h := b.arena.alloc(part[mid], split)
	left := b.build(lo, lo+mid, split, depth+1)
	right := b.build(lo+mid+1, hi, split, depth+1)
	nd := b.arena.at(h)
	nd.left, nd.right = left, right
	return h
}

// identical reports whether every point in part equals the first one.
func (b *builder) identical(part []int32) bool {
	first := b.store.row(int(part[0]))
	for _, pos := range part[1:] {
		if !slices.Equal(first, b.store.row(int(pos))) {
			return false
		}
	}
	return true
}

// chain builds the subtree for a partition of identical points without sorting.
// Every variance is zero, so each node splits on dimension 0 and the median
// moves to the first slot, leaving the rest as the right subtree. The last node
// takes the degenerate-split bump when its parent also split on 0.
func (b *builder) chain(part []int32, parentSplit, depth int) handle {
	b.height = max(b.height, depth+len(part)-1)
	root, prev := nilHandle, nilHandle
	for i, pos := range part {
		split := 0
		if i == len(part)-1 && parentSplit == 0 {
			split = 1 % b.store.dims
		}
		h := b.arena.alloc(pos, split)
		if prev == nilHandle {
			root = h
		} else {
			b.arena.at(prev).right = h
		}
		prev, parentSplit = h, split
	}
	return root
}

// splitDimension returns the dimension with the greatest population variance
// over part. Ties resolve to the lowest dimension.
func (b *builder) splitDimension(part []int32) int {
	n := float64(len(part))
	best, bestVariance := 0, math.Inf(-1)
	for dim := 0; dim < b.store.dims; dim++ {
		var sum, sumSq float64
		for _, pos := range part {
			x := b.store.coord(int(pos), dim)
			sum += x
			sumSq += x * x
		}
		mean := sum / n
		variance := sumSq/n - mean*mean
		if variance > bestVariance {
			best, bestVariance = dim, variance
		}
	}
	return best
}

func (b *builder) sortBy(part []int32, dim int) {
	s := b.store
	slices.SortFunc(part, func(x, y int32) int {
		return cmp.Compare(s.coord(int(x), dim), s.coord(int(y), dim))
	})
}
