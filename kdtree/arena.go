package kdtree

// handle addresses a node in the arena. Handles are stable for the lifetime of
// the index; nilHandle marks an absent child.
type handle int32

const nilHandle handle = -1

type node struct {
	pos   int32 // position of the node's point in the store
	split int32
	left  handle
	right handle
}

// arena owns every node of a tree. Nodes are allocated once during build and
// released together.
type arena struct {
	nodes []node
}

func newArena(capacity int) *arena {
	return &arena{nodes: make([]node, 0, capacity)}
}

func (a *arena) alloc(pos int32, split int) handle {
	h := handle(len(a.nodes))
	a.nodes = append(a.nodes, node{pos: pos, split: int32(split), left: nilHandle, right: nilHandle})
	return h
}

func (a *arena) at(h handle) *node { return &a.nodes[h] }

func (a *arena) len() int {
	if a == nil {
		return 0
	}
	return len(a.nodes)
}

// release drops every node and returns how many were held.
func (a *arena) release() int {
	n := len(a.nodes)
	a.nodes = nil
	return n
}
