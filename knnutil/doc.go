// Package knnutil offers helpers for writing points into knn shadow tables and
// querying knn virtual tables without hand-written SQL.
package knnutil
