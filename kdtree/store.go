package kdtree

import "math"

// Store is an immutable, row-major collection of points sharing one dimension.
// It is the backing store that every PointRef is scoped to; two refs are
// comparable only when they point into the same *Store.
type Store struct {
	dims   int
	coords []float64
}

// NewStore copies points into a new Store. The dimension is taken from the first
// point; an empty input yields an empty, dimensionless store.
func NewStore(points [][]float64) (*Store, error) {
	if len(points) == 0 {
		return &Store{}, nil
	}
	return NewStoreDims(len(points[0]), points)
}

// NewStoreDims copies points into a new Store of the given dimension. Use it when
// the dimension must be known even for an empty point set.
func NewStoreDims(dims int, points [][]float64) (*Store, error) {
	if dims <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dims}
	}
	coords := make([]float64, 0, len(points)*dims)
	for _, p := range points {
		if len(p) != dims {
			return nil, &ErrDimensionMismatch{Expected: dims, Actual: len(p)}
		}
		if err := checkFinite(p); err != nil {
			return nil, err
		}
		coords = append(coords, p...)
	}
	return &Store{dims: dims, coords: coords}, nil
}

// NewStoreFlat copies flat row-major coordinates (n*dims values) into a new Store.
func NewStoreFlat(dims int, coords []float64) (*Store, error) {
	if dims <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dims}
	}
	if len(coords)%dims != 0 {
		return nil, &ErrDimensionMismatch{Expected: dims, Actual: len(coords) % dims}
	}
	if err := checkFinite(coords); err != nil {
		return nil, err
	}
	return &Store{dims: dims, coords: append([]float64(nil), coords...)}, nil
}

func checkFinite(values []float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
	}
	return nil
}

// Len returns the number of points.
func (s *Store) Len() int {
	if s == nil || s.dims == 0 {
		return 0
	}
	return len(s.coords) / s.dims
}

// Dims returns the dimension of every point, or 0 for a dimensionless empty store.
func (s *Store) Dims() int {
	if s == nil {
		return 0
	}
	return s.dims
}

// Point returns a copy of the coordinates of point i.
func (s *Store) Point(i int) []float64 {
	return append([]float64(nil), s.row(i)...)
}

// Ref returns a reference to point i scoped to this store.
func (s *Store) Ref(i int) PointRef {
	return PointRef{store: s, index: i}
}

func (s *Store) row(i int) []float64 {
	off := i * s.dims
	return s.coords[off : off+s.dims : off+s.dims]
}

func (s *Store) coord(i, dim int) float64 {
	return s.coords[i*s.dims+dim]
}

// PointRef references one point of a Store by position. The zero value refers to
// no point.
type PointRef struct {
	store *Store
	index int
}

// Valid reports whether the ref points into a store.
func (r PointRef) Valid() bool { return r.store != nil }

// Index returns the position of the point in its store, which is also its
// position in the slice the store was created from.
func (r PointRef) Index() int { return r.index }

// Store returns the backing store.
func (r PointRef) Store() *Store { return r.store }

// Coord returns the coordinate at dim.
func (r PointRef) Coord(dim int) float64 { return r.store.coord(r.index, dim) }

// Coords returns a copy of the point's coordinates.
func (r PointRef) Coords() []float64 { return r.store.Point(r.index) }

// SameStore reports whether r and other reference the same backing store.
func (r PointRef) SameStore(other PointRef) bool { return r.store == other.store }

// Compare returns r[dim] - other[dim]. Refs from different stores are rejected
// with ErrForeignRef.
func (r PointRef) Compare(other PointRef, dim int) (float64, error) {
	if !r.SameStore(other) {
		return 0, ErrForeignRef
	}
	return r.Coord(dim) - other.Coord(dim), nil
}

// Distance returns the Euclidean distance between r and other. Refs from
// different stores are rejected with ErrForeignRef.
func (r PointRef) Distance(other PointRef) (float64, error) {
	if !r.SameStore(other) {
		return 0, ErrForeignRef
	}
	return Euclidean(r.store.row(r.index), other.store.row(other.index)), nil
}

// SwapRefs exchanges the positions held by a and b. Refs from different stores
// are rejected with ErrForeignRef and left untouched.
func SwapRefs(a, b *PointRef) error {
	if !a.SameStore(*b) {
		return ErrForeignRef
	}
	a.index, b.index = b.index, a.index
	return nil
}
