package kd

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/viant/sqlite-kdtree/index"
	"github.com/viant/sqlite-kdtree/kdtree"
)

// Index adapts kdtree.Index to the id-keyed index.Index contract. ids[i] names
// the point at store position i.
type Index struct {
	ids  []string
	tree *kdtree.Index
}

// New returns an empty index; Build or UnmarshalBinary populates it.
func New() *Index { return &Index{} }

// Build copies the points into a new store and builds the tree over it.
func (i *Index) Build(ids []string, points [][]float64) error {
	if _, err := index.ValidateInput("kd", ids, points); err != nil {
		return err
	}
	store, err := kdtree.NewStore(points)
	if err != nil {
		return err
	}
	i.release()
	i.ids = append([]string(nil), ids...)
	i.tree = kdtree.Build(store)
	return nil
}

// Tree exposes the underlying k-d tree, nil before Build.
func (i *Index) Tree() *kdtree.Index { return i.tree }

// Len returns the number of indexed points.
func (i *Index) Len() int {
	if i.tree == nil {
		return 0
	}
	return i.tree.Len()
}

// Nearest returns the id and distance of the closest stored point.
func (i *Index) Nearest(query []float64) (string, float64, error) {
	if i.tree == nil {
		return "", 0, index.ErrEmpty
	}
	nb, err := i.tree.Nearest(query)
	if errors.Is(err, kdtree.ErrEmptyIndex) {
		return "", 0, index.ErrEmpty
	}
	if err != nil {
		return "", 0, err
	}
	return i.ids[nb.Ref.Index()], nb.Distance, nil
}

// Release frees the tree and returns the number of released nodes.
func (i *Index) Release() int {
	n := i.release()
	i.ids = nil
	return n
}

func (i *Index) release() int {
	if i.tree == nil {
		return 0
	}
	n := i.tree.Release()
	i.tree = nil
	return n
}

// MarshalBinary stores: n(uint32), then idLen(uint32)+id bytes per point in
// store order, followed by the kdtree snapshot.
func (i *Index) MarshalBinary() ([]byte, error) {
	if i.tree == nil {
		return nil, index.ErrEmpty
	}
	snapshot, err := i.tree.MarshalBinary()
	if err != nil {
		return nil, err
	}
	size := 4 + len(snapshot)
	for _, id := range i.ids {
		size += 4 + len(id)
	}
	out := make([]byte, 0, size)
	putU32 := func(v uint32) { out = binary.LittleEndian.AppendUint32(out, v) }
	putU32(uint32(len(i.ids)))
	for _, id := range i.ids {
		putU32(uint32(len(id)))
		out = append(out, id...)
	}
	return append(out, snapshot...), nil
}

// UnmarshalBinary restores ids and the tree without rebuilding.
func (i *Index) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return errors.New("kd: invalid data")
	}
	off := 0
	getU32 := func() uint32 { v := binary.LittleEndian.Uint32(data[off : off+4]); off += 4; return v }
	n := int(getU32())
	if n > (len(data)-off)/4 {
		return errors.New("kd: truncated")
	}
	ids := make([]string, n)
	for idx := 0; idx < n; idx++ {
		if off+4 > len(data) {
			return errors.New("kd: truncated")
		}
		idlen := int(getU32())
		if off+idlen > len(data) {
			return errors.New("kd: truncated id")
		}
		ids[idx] = string(data[off : off+idlen])
		off += idlen
	}
	tree, err := kdtree.Unmarshal(data[off:])
	if err != nil {
		return err
	}
	if tree.Len() != n {
		return fmt.Errorf("kd: snapshot holds %d points, ids %d", tree.Len(), n)
	}
	i.release()
	i.ids, i.tree = ids, tree
	return nil
}
