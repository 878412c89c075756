// Package kdtree implements a static, in-memory k-d tree over a fixed-dimension
// point set and answers exact single nearest-neighbor queries.
//
// Construction splits each node along the axis of greatest population variance
// and places the median point (ties to the right) at the node. Search descends
// to a leaf, then backtracks with branch-and-bound pruning, passing the tightest
// known bound into every nested subtree search.
//
// Points live in an immutable Store. The tree never copies or reorders caller
// memory: NewStore copies coordinates once, and Build permutes an internal
// working slice of positions. Nodes are kept in an arena addressed by handles and
// released in one pass by Release.
//
// A built Index is safe for concurrent Nearest calls. Build and Release require
// exclusive access.
package kdtree
