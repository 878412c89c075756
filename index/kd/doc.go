// Package kd exposes the k-d tree through the index.Index contract so it can be
// persisted by the knn virtual table and cross-checked against the oracle
// backends.
package kd
