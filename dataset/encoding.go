package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodePoint encodes coordinates into a BLOB representation suitable for
// storage in SQLite: a little-endian sequence of IEEE 754 float64 values
// without a length prefix; the dimension is derived from the BLOB size.
func EncodePoint(coords []float64) []byte {
	if len(coords) == 0 {
		return nil
	}
	b := make([]byte, len(coords)*8)
	for i, v := range coords {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(v))
	}
	return b
}

// DecodePoint decodes a BLOB produced by EncodePoint.
func DecodePoint(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("dataset: invalid point blob length %d (not multiple of 8)", len(b))
	}
	coords := make([]float64, len(b)/8)
	for i := range coords {
		coords[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return coords, nil
}
