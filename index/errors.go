package index

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned by Nearest on an index built from zero points.
var ErrEmpty = errors.New("index: empty")

// ValidateInput checks that ids and points pair up and share one dimension.
// It returns that dimension, or 0 for empty input.
func ValidateInput(name string, ids []string, points [][]float64) (int, error) {
	if len(ids) != len(points) {
		return 0, fmt.Errorf("%s: ids and points length mismatch: %d != %d", name, len(ids), len(points))
	}
	if len(points) == 0 {
		return 0, nil
	}
	dims := len(points[0])
	if dims == 0 {
		return 0, fmt.Errorf("%s: zero-dimensional point", name)
	}
	for j := range points {
		if len(points[j]) != dims {
			return 0, fmt.Errorf("%s: inconsistent point dims %d vs %d", name, len(points[j]), dims)
		}
	}
	return dims, nil
}
