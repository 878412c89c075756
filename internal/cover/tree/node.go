package tree

import "math"

// Node is a cover-tree node. radius bounds the distance from point to any
// descendant and is recomputed lazily when the tree version changes.
type Node struct {
	level          int32
	point          *Point
	children       []Node
	radius         float32
	radiusComputed uint64
}

// NewNode constructs a node for the provided point and level.
func NewNode(point *Point, level int32) Node {
	return Node{level: level, point: point}
}

func levelRadius(base float32, level int32) float32 {
	return float32(math.Pow(float64(base), float64(level)))
}
