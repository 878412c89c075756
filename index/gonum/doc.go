// Package gonum wraps gonum.org/v1/gonum/spatial/kdtree behind index.Index. It
// exists to cross-check and benchmark the k-d tree in this module.
package gonum
