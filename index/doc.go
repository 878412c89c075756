// Package index defines a minimal abstraction for exact nearest-neighbor
// indexes that can be built from id-keyed points, queried for the single
// closest point, and serialized for persistence.
//
// Implementations in this module: kd (the k-d tree), bruteforce (linear scan
// baseline), gonum (gonum's spatial kd-tree) and cover (a float32 cover tree).
// The last three serve as oracles when cross-checking the k-d tree.
package index
