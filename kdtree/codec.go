package kdtree

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
)

const snapshotMagic = "KDT1"

// IsSnapshot reports whether data starts with the index snapshot magic.
func IsSnapshot(data []byte) bool {
	return len(data) >= len(snapshotMagic) && string(data[:len(snapshotMagic)]) == snapshotMagic
}

// MarshalBinary serializes the store and the arena so the tree can be restored
// without rebuilding. Layout (before zstd compression): dims, n, height, root
// (uint32 each), n*dims float64 coordinates, then n nodes of pos, split, left,
// right (uint32 each, -1 for absent children). The magic "KDT1" prefixes the
// compressed payload.
func (ix *Index) MarshalBinary() ([]byte, error) {
	if ix.released {
		return nil, ErrReleased
	}
	n := ix.Len()
	dims := ix.Dims()
	raw := make([]byte, 0, 16+n*dims*8+n*16)
	putU32 := func(v uint32) { raw = binary.LittleEndian.AppendUint32(raw, v) }
	putU32(uint32(dims))
	putU32(uint32(n))
	putU32(uint32(ix.height))
	putU32(uint32(int32(ix.root)))
	if ix.store != nil {
		for _, v := range ix.store.coords {
			raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
		}
	}
	for _, nd := range ix.arena.nodes {
		putU32(uint32(nd.pos))
		putU32(uint32(nd.split))
		putU32(uint32(int32(nd.left)))
		putU32(uint32(int32(nd.right)))
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("kdtree: zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, []byte(snapshotMagic)), nil
}

// UnmarshalBinary replaces ix with the index serialized in data.
func (ix *Index) UnmarshalBinary(data []byte) error {
	restored, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*ix = *restored
	return nil
}

// Unmarshal restores an index produced by MarshalBinary. The restored index
// owns a new Store; its refs are not interchangeable with those of the marshaled index.
func Unmarshal(data []byte) (*Index, error) {
	if !IsSnapshot(data) {
		return nil, ErrCorruptSnapshot
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("kdtree: zstd decoder: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data[len(snapshotMagic):], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if len(raw) < 16 {
		return nil, ErrCorruptSnapshot
	}

	off := 0
	getU32 := func() uint32 { v := binary.LittleEndian.Uint32(raw[off : off+4]); off += 4; return v }
	dims := int(getU32())
	n := int(getU32())
	height := int(getU32())
	root := handle(int32(getU32()))
	if n > (len(raw)-16)/16 || (n > 0 && (dims == 0 || dims > (len(raw)-16)/(8*n))) {
		return nil, ErrCorruptSnapshot
	}
	if len(raw) != 16+n*dims*8+n*16 {
		return nil, ErrCorruptSnapshot
	}

	coords := make([]float64, n*dims)
	for i := range coords {
		coords[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[off : off+8]))
		off += 8
	}
	nodes := make([]node, n)
	for i := range nodes {
		nodes[i] = node{
			pos:   int32(getU32()),
			split: int32(getU32()),
			left:  handle(int32(getU32())),
			right: handle(int32(getU32())),
		}
	}
	depth, err := validateTree(nodes, root, dims)
	if err != nil {
		return nil, err
	}
	if depth != height {
		return nil, ErrCorruptSnapshot
	}
	if err := checkFinite(coords); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	return &Index{
		store:   &Store{dims: dims, coords: coords},
		arena:   &arena{nodes: nodes},
		root:    root,
		height:  height,
		created: n,
	}, nil
}

// validateTree checks that nodes form a single tree rooted at root holding every
// store position exactly once, and returns the tree height.
func validateTree(nodes []node, root handle, dims int) (int, error) {
	n := len(nodes)
	if n == 0 {
		if root != nilHandle {
			return 0, ErrCorruptSnapshot
		}
		return 0, nil
	}
	inRange := func(h handle) bool { return h >= 0 && int(h) < n }
	if !inRange(root) {
		return 0, ErrCorruptSnapshot
	}
	referenced := make([]bool, n)
	usedPos := make([]bool, n)
	for _, nd := range nodes {
		if nd.pos < 0 || int(nd.pos) >= n || usedPos[nd.pos] || nd.split < 0 || int(nd.split) >= dims {
			return 0, ErrCorruptSnapshot
		}
		usedPos[nd.pos] = true
		for _, child := range [2]handle{nd.left, nd.right} {
			if child == nilHandle {
				continue
			}
			if !inRange(child) || referenced[child] || child == root {
				return 0, ErrCorruptSnapshot
			}
			referenced[child] = true
		}
	}

	type entry struct {
		h     handle
		depth int
	}
	visited, height := 0, 0
	stack := []entry{{h: root, depth: 1}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++
		height = max(height, e.depth)
		nd := nodes[e.h]
		if nd.left != nilHandle {
			stack = append(stack, entry{h: nd.left, depth: e.depth + 1})
		}
		if nd.right != nilHandle {
			stack = append(stack, entry{h: nd.right, depth: e.depth + 1})
		}
	}
	if visited != n {
		return 0, ErrCorruptSnapshot
	}
	return height, nil
}
