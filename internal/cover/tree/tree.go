package tree

// Insertion follows github.com/viant/gds/tree/cover; pruning uses exact
// per-node subtree radii, so results do not depend on the cover invariant.

import (
	"container/heap"
	"sync"
)

// DefaultBase is the level expansion factor used when none is given.
const DefaultBase float32 = 1.3

// Tree is a Euclidean cover tree answering single nearest-neighbor queries.
type Tree struct {
	root         *Node
	base         float32
	distanceFunc DistanceFunc
	points       []*Point
	version      uint64
	mu           sync.Mutex
}

// NewTree constructs a cover tree with the provided base.
func NewTree(base float32) *Tree {
	if base <= 1 {
		base = DefaultBase
	}
	return &Tree{base: base, distanceFunc: EuclideanDistance}
}

// Len returns the number of inserted points.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.points)
}

// Insert adds a point and returns its ordinal.
func (t *Tree) Insert(point *Point) int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	point.ordinal = int32(len(t.points))
	t.points = append(t.points, point)
	if t.root == nil {
		node := NewNode(point, 0)
		t.root = &node
	} else {
		t.insert(t.root, point, t.root.level)
	}
	t.version++
	return point.ordinal
}

// Point returns the point inserted with ordinal, or nil.
func (t *Tree) Point(ordinal int32) *Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ordinal < 0 || int(ordinal) >= len(t.points) {
		return nil
	}
	return t.points[ordinal]
}

func (t *Tree) insert(node *Node, point *Point, level int32) {
	for {
		distance := t.distanceFunc(point, node.point)
		if distance == 0 {
			node.children = append(node.children, NewNode(point, node.level-1))
			return
		}
		if distance < levelRadius(t.base, level) {
			next := -1
			childRadius := levelRadius(t.base, level-1)
			for i := range node.children {
				if t.distanceFunc(point, node.children[i].point) < childRadius {
					next = i
					break
				}
			}
			if next < 0 {
				node.children = append(node.children, NewNode(point, level-1))
				return
			}
			node = &node.children[next]
			level--
			continue
		}
		level++
		if node == t.root && level > node.level {
			newRoot := NewNode(point, level)
			newRoot.children = append(newRoot.children, *t.root)
			t.root = &newRoot
			return
		}
		if node != t.root {
			node.children = append(node.children, NewNode(point, node.level-1))
			return
		}
	}
}

// Nearest returns the closest point to query; ok is false for an empty tree.
func (t *Tree) Nearest(query *Point) (Neighbor, bool) {
	result := t.KNearestNeighbors(query, 1)
	if len(result) == 0 {
		return Neighbor{}, false
	}
	return *result[0], true
}

// KNearestNeighbors runs a best-first search with a node priority queue and
// returns up to k neighbors ordered by increasing distance.
func (t *Tree) KNearestNeighbors(query *Point, k int) []*Neighbor {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil || k <= 0 {
		return nil
	}
	nh := &neighbors{}
	pq := &nodeQueue{}
	rootDist := t.distanceFunc(query, t.root.point)
	heap.Push(pq, nodeItem{node: t.root, lb: rootDist - t.ensureRadius(t.root), centerDist: rootDist})

	for pq.Len() > 0 {
		top := heap.Pop(pq).(nodeItem)
		if nh.Len() == k && top.lb >= (*nh)[0].Distance {
			break
		}
		if nh.Len() < k {
			heap.Push(nh, Neighbor{Point: top.node.point, Distance: top.centerDist})
		} else if top.centerDist < (*nh)[0].Distance {
			heap.Pop(nh)
			heap.Push(nh, Neighbor{Point: top.node.point, Distance: top.centerDist})
		}
		for i := range top.node.children {
			child := &top.node.children[i]
			cd := t.distanceFunc(query, child.point)
			lb := cd - t.ensureRadius(child)
			if nh.Len() == k && lb >= (*nh)[0].Distance {
				continue
			}
			heap.Push(pq, nodeItem{node: child, lb: lb, centerDist: cd})
		}
	}
	result := make([]*Neighbor, nh.Len())
	for i := len(result) - 1; i >= 0; i-- {
		n := heap.Pop(nh).(Neighbor)
		result[i] = &n
	}
	return result
}

func (t *Tree) ensureRadius(n *Node) float32 {
	if n.radiusComputed == t.version {
		return n.radius
	}
	maxR := float32(0)
	for i := range n.children {
		child := &n.children[i]
		if d := t.distanceFunc(n.point, child.point) + t.ensureRadius(child); d > maxR {
			maxR = d
		}
	}
	n.radius = maxR
	n.radiusComputed = t.version
	return maxR
}

// neighbors is a max-heap by distance.
type neighbors []Neighbor

func (h neighbors) Len() int            { return len(h) }
func (h neighbors) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h neighbors) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *neighbors) Push(x interface{}) { *h = append(*h, x.(Neighbor)) }
func (h *neighbors) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type nodeItem struct {
	node       *Node
	lb         float32
	centerDist float32
}

type nodeQueue []nodeItem

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].lb < q[j].lb }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(nodeItem)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
