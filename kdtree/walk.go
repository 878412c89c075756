package kdtree

// Node is a read-only view of one tree node.
type Node struct {
	ix *Index
	h  handle
}

// Root returns the root node; ok is false for an empty or released index.
func (ix *Index) Root() (Node, bool) {
	if ix.root == nilHandle {
		return Node{}, false
	}
	return Node{ix: ix, h: ix.root}, true
}

// Ref returns the node's point.
func (n Node) Ref() PointRef {
	return n.ix.store.Ref(int(n.ix.arena.nodes[n.h].pos))
}

// Split returns the node's split dimension.
func (n Node) Split() int { return int(n.ix.arena.nodes[n.h].split) }

// Left returns the child holding points strictly below the node on Split.
func (n Node) Left() (Node, bool) { return n.child(n.ix.arena.nodes[n.h].left) }

// Right returns the child holding points at or above the node on Split.
func (n Node) Right() (Node, bool) { return n.child(n.ix.arena.nodes[n.h].right) }

func (n Node) child(h handle) (Node, bool) {
	if h == nilHandle {
		return Node{}, false
	}
	return Node{ix: n.ix, h: h}, true
}

// Operation is called for every node visited by Walk with the node's depth (the
// root has depth 0). Returning true stops the walk.
type Operation func(n Node, depth int) (done bool)

// Walk visits nodes in pre-order. It reports whether fn stopped the walk early.
func (ix *Index) Walk(fn Operation) bool {
	root, ok := ix.Root()
	if !ok {
		return false
	}
	return walk(root, 0, fn)
}

func walk(n Node, depth int, fn Operation) bool {
	if fn(n, depth) {
		return true
	}
	if left, ok := n.Left(); ok && walk(left, depth+1, fn) {
		return true
	}
	if right, ok := n.Right(); ok {
		return walk(right, depth+1, fn)
	}
	return false
}
