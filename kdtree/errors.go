package kdtree

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyIndex is returned by queries against an index built from zero points.
	ErrEmptyIndex = errors.New("kdtree: index is empty")

	// ErrReleased is returned by queries against an index after Release.
	ErrReleased = errors.New("kdtree: index released")

	// ErrForeignRef is returned when point references from two different stores
	// are compared or exchanged.
	ErrForeignRef = errors.New("kdtree: point references belong to different stores")

	// ErrNonFinite is returned when a coordinate is NaN or infinite.
	ErrNonFinite = errors.New("kdtree: non-finite coordinate")

	// ErrCorruptSnapshot is returned when a serialized index cannot be decoded.
	ErrCorruptSnapshot = errors.New("kdtree: corrupt snapshot")
)

// ErrDimensionMismatch indicates a point or query whose dimensionality differs
// from the store's.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("kdtree: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates a non-positive store dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("kdtree: invalid dimension: %d", e.Dimension)
}
