package bruteforce

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/kdtree"
)

// Index is an exact nearest-neighbor index that scans every stored point.
type Index struct {
	ids    []string
	points [][]float64
	dim    int
}

// Build copies ids and points.
func (i *Index) Build(ids []string, points [][]float64) error {
	dim, err := index.ValidateInput("bruteforce", ids, points)
	if err != nil {
		return err
	}
	i.ids = append([]string(nil), ids...)
	i.points = make([][]float64, len(points))
	for j, p := range points {
		i.points[j] = append([]float64(nil), p...)
	}
	i.dim = dim
	return nil
}

// Len returns the number of stored points.
func (i *Index) Len() int { return len(i.points) }

// Nearest returns the closest point; ties keep the lowest position.
func (i *Index) Nearest(query []float64) (string, float64, error) {
	pos, dist, err := i.NearestPosition(query)
	if err != nil {
		return "", 0, err
	}
	return i.ids[pos], dist, nil
}

// NearestPosition is Nearest reporting the build-order position of the match.
func (i *Index) NearestPosition(query []float64) (int, float64, error) {
	if len(i.points) == 0 {
		return -1, 0, index.ErrEmpty
	}
	if len(query) != i.dim {
		return -1, 0, &kdtree.ErrDimensionMismatch{Expected: i.dim, Actual: len(query)}
	}
	best, bestDist := -1, math.Inf(1)
	for j, p := range i.points {
		if d := kdtree.Euclidean(query, p); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best, bestDist, nil
}

// MarshalBinary stores the points in the format described by Encode.
func (i *Index) MarshalBinary() ([]byte, error) {
	return Encode(i.ids, i.points), nil
}

// UnmarshalBinary restores the index from bytes.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, points, err := Decode(data)
	if err != nil {
		return err
	}
	return i.Build(ids, points)
}

// Encode stores: dim(uint32), n(uint32), then for each item:
// idLen(uint32), id bytes, point(float64[dim]).
func Encode(ids []string, points [][]float64) []byte {
	dim := 0
	if len(points) > 0 {
		dim = len(points[0])
	}
	size := 8
	for _, id := range ids {
		size += 4 + len(id) + 8*dim
	}
	out := make([]byte, 0, size)
	putU32 := func(v uint32) { out = binary.LittleEndian.AppendUint32(out, v) }
	putF64 := func(v float64) { out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v)) }
	putU32(uint32(dim))
	putU32(uint32(len(ids)))
	for idx, id := range ids {
		putU32(uint32(len(id)))
		out = append(out, id...)
		for _, v := range points[idx] {
			putF64(v)
		}
	}
	return out
}

// Decode parses the format written by Encode.
func Decode(data []byte) ([]string, [][]float64, error) {
	if len(data) < 8 {
		return nil, nil, errors.New("bruteforce: invalid data")
	}
	off := 0
	getU32 := func() uint32 { v := binary.LittleEndian.Uint32(data[off : off+4]); off += 4; return v }
	dim := int(getU32())
	n := int(getU32())
	if n > 0 && dim == 0 {
		return nil, nil, errors.New("bruteforce: zero dimension")
	}
	if dim > (len(data)-off)/8 || n > (len(data)-off)/(4+8*dim) {
		return nil, nil, errors.New("bruteforce: truncated")
	}
	ids := make([]string, n)
	points := make([][]float64, n)
	for idx := 0; idx < n; idx++ {
		if off+4 > len(data) {
			return nil, nil, errors.New("bruteforce: truncated")
		}
		idlen := int(getU32())
		if off+idlen > len(data) {
			return nil, nil, errors.New("bruteforce: truncated id")
		}
		ids[idx] = string(data[off : off+idlen])
		off += idlen
		if off+8*dim > len(data) {
			return nil, nil, errors.New("bruteforce: truncated point")
		}
		p := make([]float64, dim)
		for j := range p {
			p[j] = math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
			off += 8
		}
		points[idx] = p
	}
	return ids, points, nil
}
